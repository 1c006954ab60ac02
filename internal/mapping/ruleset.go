package mapping

import (
	"errors"
	"fmt"
	"strings"

	"graph-mapper/internal/common"
	"graph-mapper/internal/member"
)

// ErrUnknownRuleSet is returned when a rule set name is not recognized.
var ErrUnknownRuleSet = errors.New("unknown rule set")

// RuleSet is the mapping intent of a call.
type RuleSet int

const (
	// CreateNew maps onto a freshly created target.
	CreateNew RuleSet = iota
	// Merge maps onto an existing target, populating only zero members.
	Merge
	// Overwrite maps onto an existing target, resetting unmapped members.
	Overwrite
)

// RuleSets lists every rule set.
var RuleSets = []RuleSet{CreateNew, Merge, Overwrite}

// String returns the rule set name.
func (r RuleSet) String() string {
	switch r {
	case CreateNew:
		return "CreateNew"
	case Merge:
		return "Merge"
	case Overwrite:
		return "Overwrite"
	default:
		return common.UnknownStr
	}
}

// ParseRuleSet parses a rule set name. "OnTo" and "Over" are accepted as
// aliases of Merge and Overwrite.
func ParseRuleSet(name string) (RuleSet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "createnew", "create":
		return CreateNew, nil
	case "merge", "onto":
		return Merge, nil
	case "overwrite", "over":
		return Overwrite, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRuleSet, name)
	}
}

// Scope is the source category a rule applies to.
type Scope int

const (
	// ScopeAny applies regardless of the source category.
	ScopeAny Scope = iota
	// ScopeTyped applies to struct sources only.
	ScopeTyped
	// ScopeDictionaries applies to map sources and targets only.
	ScopeDictionaries
	// ScopeDynamics applies to Dynamic sources and targets only.
	ScopeDynamics
)

// String returns the scope name as used in YAML documents.
func (s Scope) String() string {
	switch s {
	case ScopeAny:
		return "any"
	case ScopeTyped:
		return "typed"
	case ScopeDictionaries:
		return "dictionaries"
	case ScopeDynamics:
		return "dynamics"
	default:
		return common.UnknownStr
	}
}

// ScopeOf returns the scope of a source category.
func ScopeOf(c member.Category) Scope {
	switch c {
	case member.CategoryDictionary:
		return ScopeDictionaries
	case member.CategoryDynamic:
		return ScopeDynamics
	default:
		return ScopeTyped
	}
}

// Covers reports whether a rule with scope s applies to a query in scope q.
func (s Scope) Covers(q Scope) bool {
	return s == ScopeAny || s == q
}

func parseScope(name string) (Scope, bool) {
	switch strings.ToLower(name) {
	case "dictionaries", "dictionary":
		return ScopeDictionaries, true
	case "dynamics", "dynamic":
		return ScopeDynamics, true
	default:
		return ScopeAny, false
	}
}
