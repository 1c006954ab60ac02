package plan

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
)

// Key identifies a plan. Two requests with equal keys share the plan.
type Key struct {
	Source   reflect.Type
	Target   reflect.Type
	RuleSet  mapping.RuleSet
	Revision uint64
	Position datasource.Position
}

// Query returns the configuration query for the key.
func (k Key) Query(scope mapping.Scope) mapping.Query {
	return mapping.Query{Scope: scope, Source: k.Source, Target: k.Target, RuleSet: k.RuleSet}
}

// Nested returns the key of a nested plan mapping source onto target at pos.
func (k Key) Nested(source, target reflect.Type, pos datasource.Position) Key {
	return Key{Source: source, Target: target, RuleSet: k.RuleSet, Revision: k.Revision, Position: pos}
}

// String returns the key as "source -> target (ruleset)".
func (k Key) String() string {
	s := fmt.Sprintf("%s -> %s (%s)", typeName(k.Source), typeName(k.Target), k.RuleSet)
	if !k.Position.IsZero() {
		s += " at " + positionString(k.Position)
	}

	return s
}

func positionString(p datasource.Position) string {
	s := p.Path
	if p.Root != nil {
		s = typeName(p.Root) + "." + s
	}

	if p.Unflatten != "" {
		s += " unflatten " + p.Unflatten
	}

	return s
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}
