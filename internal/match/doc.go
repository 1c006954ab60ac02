// Package match resolves correspondences between target member names and
// source members or keys.
//
// Key functions:
//   - Settings.NameVariants / ChildPrefixes / ElementKey: candidate keys for
//     dictionary and dynamic sources
//   - FindKey: case-insensitive, priority-ordered key lookup
//   - NormalizeIdent, Levenshtein: fuzzy name comparison
//   - RankCandidates / Suggest: "did you mean" hints for unmatched members
package match
