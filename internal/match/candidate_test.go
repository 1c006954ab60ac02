package match

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

type customerView struct {
	FullNam string
	Emial   string
}

func TestScoreTypeCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		from, to reflect.Type
		expected TypeCompatibility
	}{
		{"identical", reflect.TypeOf(""), reflect.TypeOf(""), TypeIdentical},
		{"assignable", reflect.TypeOf(&address{}), reflect.TypeOf((*any)(nil)).Elem(), TypeAssignable},
		{"convertible", reflect.TypeOf(0), reflect.TypeOf(""), TypeConvertible},
		{"mapping", reflect.TypeOf(customer{}), reflect.TypeOf(address{}), TypeNeedsMapping},
		{"complex into simple", reflect.TypeOf(address{}), reflect.TypeOf(""), TypeIncompatible},
		{"simple into complex", reflect.TypeOf(""), reflect.TypeOf(address{}), TypeIncompatible},
		{"unknown", nil, reflect.TypeOf(""), TypeIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ScoreTypeCompatibility(primitive.Default, tt.from, tt.to)
			assert.Equal(t, tt.expected, res.Compatibility, res.Reason)
		})
	}

	assert.Equal(t, VerdictNeedsMapping, TypeNeedsMapping.String())
}

func TestRankCandidates(t *testing.T) {
	sources := member.NewIntrospector().EnumerateMembers(reflect.TypeOf(customer{}))
	target := field(t, reflect.TypeOf(customerView{}), "FullNam")

	ranked := RankCandidates(primitive.Default, target, sources)
	require.Len(t, ranked, len(sources))
	assert.Equal(t, "FullName", ranked[0].Source.Name())
	assert.Equal(t, TypeIdentical, ranked[0].TypeCompat.Compatibility)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].CombinedScore, ranked[i].CombinedScore)
	}

	assert.Len(t, ranked.Top(1), 1)
	assert.Len(t, ranked.Top(10), len(sources))
}

func TestSuggest(t *testing.T) {
	sources := member.NewIntrospector().EnumerateMembers(reflect.TypeOf(customer{}))

	tests := []struct {
		name     string
		target   string
		expected []string
	}{
		{"truncated", "FullNam", []string{"FullName"}},
		{"transposed", "Emial", []string{"Email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := field(t, reflect.TypeOf(customerView{}), tt.target)
			assert.Equal(t, tt.expected, Suggest(primitive.Default, target, sources, 3))
		})
	}

	t.Run("no sources", func(t *testing.T) {
		target := field(t, reflect.TypeOf(customerView{}), "Emial")
		assert.Empty(t, Suggest(primitive.Default, target, nil, 3))
	})
}
