package match

import (
	"reflect"

	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

// TypeCompatibility represents the level of compatibility between two types.
type TypeCompatibility int

const (
	// TypeIncompatible means the types cannot be converted.
	TypeIncompatible TypeCompatibility = iota
	// TypeNeedsMapping means both sides are object graphs mapped member by member.
	TypeNeedsMapping
	// TypeConvertible means the value converter can convert between the types.
	TypeConvertible
	// TypeAssignable means the source type can be directly assigned to the target.
	TypeAssignable
	// TypeIdentical means the types are exactly the same.
	TypeIdentical
)

const (
	VerdictIdentical    = "identical"
	VerdictAssignable   = "assignable"
	VerdictConvertible  = "convertible"
	VerdictNeedsMapping = "needs_mapping"
	VerdictIncompatible = "incompatible"
)

// String returns a human-readable name for the compatibility level.
func (c TypeCompatibility) String() string {
	switch c {
	case TypeIdentical:
		return VerdictIdentical
	case TypeAssignable:
		return VerdictAssignable
	case TypeConvertible:
		return VerdictConvertible
	case TypeNeedsMapping:
		return VerdictNeedsMapping
	case TypeIncompatible:
		return VerdictIncompatible
	default:
		return "unknown"
	}
}

// TypeCompatibilityResult contains detailed information about type compatibility.
type TypeCompatibilityResult struct {
	Compatibility TypeCompatibility
	Reason        string
}

// ScoreTypeCompatibility determines how a source type relates to a target type.
func ScoreTypeCompatibility(conv *primitive.Converter, source, target reflect.Type) TypeCompatibilityResult {
	switch {
	case source == nil || target == nil:
		return TypeCompatibilityResult{TypeIncompatible, "type information unavailable"}
	case source == target:
		return TypeCompatibilityResult{TypeIdentical, "types are identical"}
	case source.AssignableTo(target):
		return TypeCompatibilityResult{TypeAssignable, "source is assignable to target"}
	}

	sc, tc := member.Classify(source), member.Classify(target)
	if sc == member.CategorySimple && tc == member.CategorySimple {
		if conv.CanConvert(source, target) {
			return TypeCompatibilityResult{TypeConvertible, "value conversion available"}
		}

		return TypeCompatibilityResult{TypeIncompatible, "no value conversion from " + source.String()}
	}

	if sc != member.CategorySimple && tc != member.CategorySimple {
		return TypeCompatibilityResult{TypeNeedsMapping, sc.String() + " to " + tc.String() + " mapping"}
	}

	return TypeCompatibilityResult{TypeIncompatible, sc.String() + " cannot populate " + tc.String()}
}
