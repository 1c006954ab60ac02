package match

import (
	"sort"

	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

// Candidate is a source member that might populate a target member the
// naming rules did not match.
type Candidate struct {
	Source member.Member

	// Scoring components
	NameScore  float64
	TypeCompat TypeCompatibilityResult

	// Combined score for ranking (higher is better)
	CombinedScore float64
}

// CandidateList is a list of candidates with ranking functionality.
type CandidateList []Candidate

// RankCandidates scores every source member against the target member and
// returns them sorted by combined score (descending).
func RankCandidates(conv *primitive.Converter, target member.Member, sources []member.Member) CandidateList {
	candidates := make(CandidateList, 0, len(sources))

	for _, source := range sources {
		nameScore := NameSimilarity(source.Name(), target.Name())
		typeCompat := ScoreTypeCompatibility(conv, source.Type(), target.Type())

		candidates = append(candidates, Candidate{
			Source:        source,
			NameScore:     nameScore,
			TypeCompat:    typeCompat,
			CombinedScore: calculateCombinedScore(nameScore, typeCompat.Compatibility),
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to n source member names close enough to the target
// member to be worth mentioning in a diagnostic.
func Suggest(conv *primitive.Converter, target member.Member, sources []member.Member, n int) []string {
	var names []string

	for _, c := range RankCandidates(conv, target, sources).AboveThreshold(DefaultSuggestScore).Top(n) {
		if c.TypeCompat.Compatibility == TypeIncompatible {
			continue
		}

		names = append(names, c.Source.Name())
	}

	return names
}

// calculateCombinedScore computes a combined score from name similarity and type compatibility.
// Weights:
//   - Name similarity: 60% (0.0-0.6)
//   - Type compatibility: 40% (0.0-0.4)
func calculateCombinedScore(nameScore float64, typeCompat TypeCompatibility) float64 {
	const (
		nameWeight = 0.6
		typeWeight = 0.4
	)

	var typeScore float64

	switch typeCompat {
	case TypeIdentical:
		typeScore = 1.0
	case TypeAssignable:
		typeScore = 0.9
	case TypeConvertible:
		typeScore = 0.7
	case TypeNeedsMapping:
		typeScore = 0.4
	case TypeIncompatible:
		typeScore = 0.0
	}

	return nameScore*nameWeight + typeScore*typeWeight
}

// Len implements sort.Interface.
func (c CandidateList) Len() int { return len(c) }

// Swap implements sort.Interface.
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }

// Less implements sort.Interface.
// Sorts by combined score descending, then by source member name for determinism.
func (c CandidateList) Less(i, j int) bool {
	if c[i].CombinedScore != c[j].CombinedScore {
		return c[i].CombinedScore > c[j].CombinedScore
	}

	return c[i].Source.Name() < c[j].Source.Name()
}

// Top returns the top n candidates.
func (c CandidateList) Top(n int) CandidateList {
	if n >= len(c) {
		return c
	}

	return c[:n]
}

// AboveThreshold returns candidates with combined score above the threshold.
func (c CandidateList) AboveThreshold(threshold float64) CandidateList {
	var result CandidateList

	for _, cand := range c {
		if cand.CombinedScore >= threshold {
			result = append(result, cand)
		}
	}

	return result
}

// DefaultSuggestScore is the minimum combined score for a suggestion.
const DefaultSuggestScore = 0.6
