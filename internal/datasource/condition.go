package datasource

import (
	"strings"

	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

// Condition guards a population or a dispatch branch.
type Condition interface {
	String() string
}

// NotNil holds when the value of Expr is not nil.
type NotNil struct{ Expr Expr }

func (c *NotNil) String() string { return c.Expr.String() + " != nil" }

// HasKeyPrefix holds when a key of the keyed source starts with one of the
// names composed with the runtime key prefixes.
type HasKeyPrefix struct {
	Settings match.Settings
	// Full keys are tested as they are, without prefixes.
	Full  []string
	Names []string
}

func (c *HasKeyPrefix) String() string {
	return "has key " + strings.Join(append(append([]string(nil), c.Full...), c.Names...), "|")
}

// HasMember holds when the runtime source has a non-zero member Name.
type HasMember struct{ Name string }

func (c *HasMember) String() string { return "source." + c.Name + " is set" }

// Predicate calls a configured predicate.
type Predicate struct {
	Func mapping.Predicate
	Desc string
}

func (c *Predicate) String() string { return c.Desc }

// TargetIsZero holds when the member of the target still has its zero value.
type TargetIsZero struct{ Member member.Member }

func (c *TargetIsZero) String() string { return "target." + c.Member.Name() + " is zero" }

// All holds when every condition holds.
type All []Condition

func (c All) String() string {
	parts := make([]string, len(c))
	for i, cond := range c {
		parts[i] = cond.String()
	}

	return strings.Join(parts, " && ")
}

// And combines conditions, dropping nils. It returns nil when nothing is left.
func And(conds ...Condition) Condition {
	var all All

	for _, c := range conds {
		switch c := c.(type) {
		case nil:
		case All:
			all = append(all, c...)
		default:
			all = append(all, c)
		}
	}

	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return all
	}
}
