// Package diagnostic provides structured warnings, errors and notes recorded
// while mapping plans are assembled.
//
// Key capabilities:
//   - Unmatched member warnings with "did you mean" suggestions
//   - Unsupported shape notes for members left unpopulated
//   - Build errors such as ambiguous construction
package diagnostic
