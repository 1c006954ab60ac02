package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for malformed member paths.
var ErrInvalidPath = errors.New("invalid path")

// PathSegment is one member of a path. Element marks a step into the
// elements of an enumerable member.
type PathSegment struct {
	Name    string
	Element bool
}

// Path is a parsed member path.
type Path struct {
	Segments []PathSegment
}

// String renders the canonical path form, e.g. "Items[i].ProductID".
func (p Path) String() string {
	var sb strings.Builder

	for i, s := range p.Segments {
		if i > 0 {
			sb.WriteByte('.')
		}

		sb.WriteString(s.Name)

		if s.Element {
			sb.WriteString("[i]")
		}
	}

	return sb.String()
}

// ParsePath parses a member path string into a Path.
// Supports: "Field", "Nested.Field", "Items[]", "Items[i]", "Items[].ProductID".
func ParsePath(path string) (Path, error) {
	if path == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	var segments []PathSegment

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return Path{}, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, path)
		}

		element := false
		name := part

		if trimmed, ok := cutElement(part); ok {
			element = true
			name = trimmed

			if name == "" {
				return Path{}, fmt.Errorf("%w %q: element without member name", ErrInvalidPath, path)
			}
		}

		if !isValidIdent(name) {
			return Path{}, fmt.Errorf("%w %q: invalid identifier %q", ErrInvalidPath, path, name)
		}

		segments = append(segments, PathSegment{Name: name, Element: element})
	}

	return Path{Segments: segments}, nil
}

// CanonicalPath parses path and renders it in canonical form.
func CanonicalPath(path string) (string, error) {
	p, err := ParsePath(path)
	if err != nil {
		return "", err
	}

	return p.String(), nil
}

// IsBelow reports whether path lies strictly beneath prefix.
func IsBelow(path, prefix string) bool {
	if prefix == "" {
		return path != ""
	}

	if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
		return false
	}

	next := path[len(prefix)]

	return next == '.' || next == '['
}

func cutElement(part string) (string, bool) {
	if s, ok := strings.CutSuffix(part, "[]"); ok {
		return s, true
	}

	return strings.CutSuffix(part, "[i]")
}

// isValidIdent checks if a string is a valid Go identifier.
func isValidIdent(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if i == 0 {
			// First character must be letter or underscore
			if !isLetter(r) && r != '_' {
				return false
			}
		} else {
			// Subsequent characters can be letter, digit, or underscore
			if !isLetter(r) && !isDigit(r) && r != '_' {
				return false
			}
		}
	}

	return true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
