package datasource

import (
	"fmt"
	"reflect"
	"strings"

	"graph-mapper/internal/caster"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// Expr is a value-producing node of the plan IR.
type Expr interface {
	// Type is the static type of the produced value.
	Type() reflect.Type
	String() string
}

// Source is the source value of the plan.
type Source struct{ T reflect.Type }

func (e *Source) Type() reflect.Type { return e.T }
func (e *Source) String() string     { return "source" }

// Ancestor is the source value of an enclosing plan: the one whose target
// path is the current path without Suffix.
type Ancestor struct {
	Suffix string
	T      reflect.Type
}

func (e *Ancestor) Type() reflect.Type { return e.T }
func (e *Ancestor) String() string     { return "source(-" + e.Suffix + ")" }

// Element is the current element of an enumerable loop.
type Element struct{ T reflect.Type }

func (e *Element) Type() reflect.Type { return e.T }
func (e *Element) String() string     { return "element" }

// Access reads a member of From.
type Access struct {
	From   Expr
	Member member.Member
}

func (e *Access) Type() reflect.Type { return e.Member.Type() }
func (e *Access) String() string     { return e.From.String() + "." + e.Member.Name() }

// Lookup reads a keyed source. Full keys are tried first as they are; Names
// are composed with the runtime key prefixes of the frame.
type Lookup struct {
	Settings  match.Settings
	Full      []string
	Names     []string
	ValueType reflect.Type
}

func (e *Lookup) Type() reflect.Type { return e.ValueType }

func (e *Lookup) String() string {
	keys := append(append([]string(nil), e.Full...), e.Names...)
	return "lookup[" + strings.Join(keys, "|") + "]"
}

// Convert converts From to To with the value converter, or with Caster when set.
type Convert struct {
	From   Expr
	To     reflect.Type
	Caster *caster.Caster
}

func (e *Convert) Type() reflect.Type { return e.To }

func (e *Convert) String() string {
	if e.Caster != nil {
		return e.Caster.String() + "(" + e.From.String() + ")"
	}

	return fmt.Sprintf("convert[%s](%s)", e.To, e.From)
}

// Keyed describes the child key space of a nested mapping from a keyed source.
type Keyed struct {
	Settings match.Settings
	Full     []string
	Names    []string
	// Deep are full keys configured for members beneath this one. Any of
	// them being present is enough to map the member.
	Deep []string
}

// MapCall maps From onto Target with the plan for their (runtime) types.
type MapCall struct {
	From   Expr
	Target reflect.Type
	// Member is the target member populated with the result.
	Member member.Member
	// Position locates the nested plan in the graph.
	Position Position
	// Keyed is set when From is a keyed source read through child prefixes.
	Keyed *Keyed
	// Existing passes the current value of the target member.
	Existing bool
}

func (e *MapCall) Type() reflect.Type { return e.Target }

func (e *MapCall) String() string {
	from := e.From.String()
	if e.Keyed != nil {
		from += "[" + strings.Join(e.Keyed.Names, "|") + "...]"
	}

	return fmt.Sprintf("map[%s](%s)", e.Target, from)
}

// Custom calls a configured value function.
type Custom struct {
	Func mapping.ValueFunc
	Desc string
}

func (e *Custom) Type() reflect.Type { return anyType }
func (e *Custom) String() string     { return "custom(" + e.Desc + ")" }

// Zero is the zero value of T.
type Zero struct{ T reflect.Type }

func (e *Zero) Type() reflect.Type { return e.T }
func (e *Zero) String() string     { return "zero" }

// Existing is the current value of a target member.
type Existing struct{ Member member.Member }

func (e *Existing) Type() reflect.Type { return e.Member.Type() }
func (e *Existing) String() string     { return "existing." + e.Member.Name() }

// Position locates a nested plan relative to the plan that configured rules
// are rooted at. The zero Position is a plan mapped on its own.
type Position struct {
	// Root is the target type rooted rules are declared for.
	Root reflect.Type
	// SourceRoot is the source type mapped onto Root.
	SourceRoot reflect.Type
	// Path is the target path from Root.
	Path string
	// Unflatten prefixes the member names searched on the source, as in
	// mapping AddressLine1 onto Address.Line1.
	Unflatten string
}

// IsZero reports whether p is the unpositioned zero value.
func (p Position) IsZero() bool { return p == Position{} }

// Child returns the position of a member below p.
func (p Position) Child(name string) Position {
	if p.Root == nil {
		return Position{}
	}

	p.Path = joinPath(p.Path, name)
	p.Unflatten = ""

	return p
}

func joinPath(path, name string) string {
	switch {
	case path == "":
		return name
	case strings.HasPrefix(name, "["):
		return path + name
	default:
		return path + "." + name
	}
}
