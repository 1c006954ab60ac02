package mapping

import (
	"reflect"
	"slices"

	"graph-mapper/internal/member"
)

// Context is what configured functions see of the mapping in progress.
type Context struct {
	// Source is the source value of the current plan.
	Source any
	// Target is the existing or constructed target, nil when not yet known.
	Target any
	// Index is the element index inside an enumerable mapping.
	Index    int
	HasIndex bool
	// Path is the target member path from the root of the call.
	Path string
	// Parent is the context of the enclosing plan, nil at the root.
	Parent *Context
}

// ValueFunc computes the value of a target member.
type ValueFunc func(ctx Context) (any, error)

// Callback observes a target before or after it is created.
type Callback func(ctx Context) error

// Factory creates a target instance.
type Factory func(ctx Context) (any, error)

// Predicate decides a derived-type branch.
type Predicate func(ctx Context) bool

// IdentifierFunc returns the identity of a source object for the object
// registry. The result must be comparable.
type IdentifierFunc func(source any) any

// Phase is the moment a creation callback runs.
type Phase int

const (
	// Before runs before the target is created.
	Before Phase = iota
	// After runs once the target is created, before members are populated.
	After
)

// Selector scopes a rule. Nil types and an empty RuleSets list match
// anything; types match covariantly, so a rule on an interface applies to
// every implementation.
type Selector struct {
	Scope    Scope
	Source   reflect.Type
	Target   reflect.Type
	RuleSets []RuleSet
}

// Query is the mapping a rule is looked up for.
type Query struct {
	Scope   Scope
	Source  reflect.Type
	Target  reflect.Type
	RuleSet RuleSet
}

// Applies reports whether the selector matches q.
func (s Selector) Applies(q Query) bool {
	if !s.Scope.Covers(q.Scope) {
		return false
	}

	if len(s.RuleSets) > 0 && !slices.Contains(s.RuleSets, q.RuleSet) {
		return false
	}

	return typeApplies(s.Source, q.Source) && typeApplies(s.Target, q.Target)
}

// specificity ranks selectors: exact types beat covariant ones, which beat
// wildcards.
func (s Selector) specificity(q Query) int {
	score := 0

	for _, pair := range [][2]reflect.Type{{s.Source, q.Source}, {s.Target, q.Target}} {
		switch {
		case pair[0] == nil:
		case member.Deref(pair[0]) == member.Deref(pair[1]):
			score += 2
		default:
			score++
		}
	}

	if len(s.RuleSets) > 0 {
		score++
	}

	return score
}

func typeApplies(rule, actual reflect.Type) bool {
	if rule == nil {
		return true
	}

	if actual == nil {
		return false
	}

	return member.AssignableFrom(rule, actual) || member.AssignableFrom(member.Deref(rule), member.Deref(actual))
}

// DataSourceRule supplies a target member from a source member path or a
// function. Exactly one of SourcePath and Value is set.
type DataSourceRule struct {
	Selector
	// TargetPath is the target member path relative to Selector.Target.
	TargetPath string
	// SourcePath is a source member path relative to Selector.Source.
	SourcePath string
	Value      ValueFunc
	Origin     string
}

// IgnoreRule leaves a target member unpopulated.
type IgnoreRule struct {
	Selector
	TargetPath string
	Origin     string
}

// KeyRule replaces the key of a member when reading from or writing to a
// keyed object. Object is the typed side of the mapping; Full keys replace
// the whole composed key, member keys replace only the member's own name.
type KeyRule struct {
	Scope    Scope
	Object   reflect.Type
	RuleSets []RuleSet
	Path     string
	Key      string
	Full     bool
	Origin   string
}

func (r KeyRule) applies(scope Scope, object reflect.Type, rs RuleSet) bool {
	return Selector{Scope: r.Scope, Target: r.Object, RuleSets: r.RuleSets}.
		Applies(Query{Scope: scope, Target: object, RuleSet: rs})
}

// NamingRule overrides the separator or element pattern of a keyed scope.
// Empty fields keep the current setting.
type NamingRule struct {
	Scope          Scope
	Object         reflect.Type
	Separator      string
	ElementPattern string
	Origin         string
}

// CallbackRule runs a callback around target creation.
type CallbackRule struct {
	Selector
	Phase  Phase
	Func   Callback
	Origin string
}

// FactoryRule creates targets matching the selector.
type FactoryRule struct {
	Selector
	Factory Factory
	Origin  string
}

// IdentifierRule identifies source objects of a type for the object registry.
type IdentifierRule struct {
	Source reflect.Type
	Func   IdentifierFunc
	Origin string
}

// DerivedRule maps to Concrete instead of the selector's target type when
// the source exposes IfKey or Predicate holds.
type DerivedRule struct {
	Selector
	Concrete  reflect.Type
	IfKey     string
	Predicate Predicate
	Origin    string
}
