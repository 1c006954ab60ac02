package plan

import (
	"fmt"
	"reflect"
	"strings"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

// Op is one operation of a plan.
type Op interface {
	String() string
}

// Reuse returns the instance already mapped from the same source in the
// current call, if any.
type Reuse struct {
	Identify mapping.IdentifierFunc
}

func (o *Reuse) String() string { return "reuse registered target" }

// Callback runs creation callbacks.
type Callback struct {
	Phase mapping.Phase
	Funcs []mapping.Callback
}

func (o *Callback) String() string {
	phase := "before"
	if o.Phase == mapping.After {
		phase = "after"
	}

	return fmt.Sprintf("%s-create callbacks (%d)", phase, len(o.Funcs))
}

// Construct creates the target, unless the call supplies an existing one.
// A local construction binds the instance before members are populated;
// an inline one evaluates member values first and allocates afterwards.
type Construct struct {
	Strategy construct.Strategy
	Local    bool
	Name     string
}

func (o *Construct) String() string {
	if o.Local {
		return fmt.Sprintf("%s := existing or %s", o.Name, o.Strategy)
	}

	return fmt.Sprintf("%s := existing or %s, after member values", o.Name, o.Strategy)
}

// Register records the constructed target for its source in the call registry.
type Register struct {
	Identify mapping.IdentifierFunc
	Name     string
}

func (o *Register) String() string { return "register " + o.Name }

// Branch maps onto Concrete when Condition holds. A nil condition always holds.
type Branch struct {
	Condition  datasource.Condition
	Concrete   reflect.Type
	Configured bool
}

func (b Branch) String() string {
	if b.Condition == nil {
		return "-> " + b.Concrete.String()
	}

	return fmt.Sprintf("if %s -> %s", b.Condition, b.Concrete)
}

// Dispatch picks the concrete type of an interface target: the existing
// target's type, then the first matching branch, then Fallback when set.
type Dispatch struct {
	Settings match.Settings
	Branches []Branch
	Fallback reflect.Type
}

func (o *Dispatch) String() string {
	parts := []string{"dispatch existing type"}
	for _, b := range o.Branches {
		parts = append(parts, b.String())
	}

	if o.Fallback != nil {
		parts = append(parts, "else -> "+o.Fallback.String())
	} else {
		parts = append(parts, "else no-op")
	}

	return strings.Join(parts, "; ")
}

// MemberPopulation binds a target member to its data source.
type MemberPopulation struct {
	Member     member.Member
	Source     datasource.DataSource
	Conditions []datasource.Condition
	Success    bool
}

// Condition combines the data source guard with the attached conditions.
func (p MemberPopulation) Condition() datasource.Condition {
	return datasource.And(append([]datasource.Condition{p.Source.Condition}, p.Conditions...)...)
}

// Populate assigns one target member.
type Populate struct {
	MemberPopulation
}

func (o *Populate) String() string {
	s := o.Member.Name() + " = " + o.Source.Value.String()
	if cond := o.Condition(); cond != nil {
		s += " if " + cond.String()
	}

	return s
}

// NoOp stands for a member or shape that is deliberately left unpopulated.
type NoOp struct {
	Path   string
	Code   string
	Reason string
}

func (o *NoOp) String() string {
	if o.Path == "" {
		return "// " + o.Reason
	}

	return "// " + o.Path + ": " + o.Reason
}

// Clone copies every entry of a dictionary of the same type, mapping each
// value with Value.
type Clone struct {
	Value datasource.Expr
}

func (o *Clone) String() string { return "clone entries as " + o.Value.String() }

// EntrySource is where dictionary entries come from.
type EntrySource int

const (
	// FromKeyed copies the entries of a map or Dynamic source.
	FromKeyed EntrySource = iota
	// FromElements writes one entry per element, keyed by the element pattern.
	FromElements
)

// Entries fills a dictionary target from a keyed or enumerable source.
// Flattened entries write the members of non-simple values under the entry
// key instead of storing the values.
type Entries struct {
	From    EntrySource
	Source  match.Settings
	Target  match.Settings
	Value   datasource.Expr
	Flatten bool
}

func (o *Entries) String() string {
	from := "keyed entries"
	if o.From == FromElements {
		from = "elements as " + o.Target.ElementKey("", 0)
	}

	if o.Flatten {
		return "flatten " + from
	}

	return from + " -> " + o.Value.String()
}

// SetEntry writes one member of an object source into a dictionary target.
type SetEntry struct {
	Member member.Member
	// Key is a full key when Full is set, else the member segment joined to
	// the target key prefix.
	Key      string
	Full     bool
	Settings match.Settings
	Value    datasource.Expr
	// Flatten writes the members of the value under Key.
	Flatten bool
}

func (o *SetEntry) String() string {
	key := "prefix+" + o.Key
	if o.Full {
		key = o.Key
	}

	if o.Flatten {
		return fmt.Sprintf("[%q] <- flatten %s", key, o.Value)
	}

	return fmt.Sprintf("[%q] = %s", key, o.Value)
}

// LoopKind selects how a loop walks its source.
type LoopKind int

const (
	// LoopSlice walks slice and array elements.
	LoopSlice LoopKind = iota
	// LoopKeyed walks element keys of a keyed source ("[0]", "[1]", ...)
	// until neither an element key nor a key below it exists.
	LoopKeyed
	// LoopEntries walks map values in key order.
	LoopEntries
)

// String returns the loop kind name.
func (k LoopKind) String() string {
	switch k {
	case LoopSlice:
		return "slice"
	case LoopKeyed:
		return "keyed"
	case LoopEntries:
		return "entries"
	default:
		return "unknown"
	}
}

// Loop maps the elements of the source into an enumerable target.
type Loop struct {
	Kind     LoopKind
	Settings match.Settings
	// Element maps one element; it reads datasource.Element.
	Element datasource.Expr
	// Fixed is the capacity of array targets, -1 for slices.
	Fixed int
}

func (o *Loop) String() string {
	limit := "source exhausted"
	if o.Fixed >= 0 {
		limit = fmt.Sprintf("source exhausted or i == %d", o.Fixed)
	}

	return fmt.Sprintf("for i := 0; !(%s); i++ { [i] = %s } over %s", limit, o.Element, o.Kind)
}

// Return yields the target, or Value for plans between simple types.
type Return struct {
	Name  string
	Value datasource.Expr
}

func (o *Return) String() string {
	switch {
	case o.Value != nil:
		return "return " + o.Value.String()
	case o.Name == "":
		return "return existing or zero"
	default:
		return "return " + o.Name
	}
}
