package member

import (
	"reflect"
	"strings"
)

// QualifiedMember is an ordered root-to-leaf chain of members with a
// precomputed path. Append, RelativeTo and WithType return new values; the
// receiver chain never changes.
type QualifiedMember struct {
	chain []Member
	path  string
	all   bool
}

// All matches every qualified member. It stands for an unqualified root.
var All = &QualifiedMember{all: true, path: "*"}

// Root returns the qualified member for the root of a graph of type t.
func Root(t reflect.Type) *QualifiedMember {
	return &QualifiedMember{chain: []Member{rootMember(t)}}
}

// Append returns a new qualified member extended by m.
func (q *QualifiedMember) Append(m Member) *QualifiedMember {
	chain := make([]Member, 0, len(q.chain)+1)
	chain = append(chain, q.chain...)
	chain = append(chain, m)

	return &QualifiedMember{chain: chain, path: joinPath(q.path, m)}
}

// RelativeTo returns the last depth steps of the chain, re-rooted at the type
// of the step preceding them. The receiver is returned when depth covers the
// whole chain.
func (q *QualifiedMember) RelativeTo(depth int) *QualifiedMember {
	if q.all || depth <= 0 || depth >= len(q.chain)-1 {
		return q
	}

	start := len(q.chain) - depth
	r := Root(q.chain[start-1].Type())

	for _, m := range q.chain[start:] {
		r = r.Append(m)
	}

	return r
}

// WithType substitutes the leaf type with an observed runtime type.
func (q *QualifiedMember) WithType(t reflect.Type) *QualifiedMember {
	if q.all || len(q.chain) == 0 || q.Leaf().Type() == t {
		return q
	}

	chain := append([]Member(nil), q.chain...)
	chain[len(chain)-1] = chain[len(chain)-1].WithType(t)

	return &QualifiedMember{chain: chain, path: q.path}
}

// Leaf returns the last member of the chain.
func (q *QualifiedMember) Leaf() Member {
	if len(q.chain) == 0 {
		return Member{}
	}

	return q.chain[len(q.chain)-1]
}

// RootType returns the type the chain starts from.
func (q *QualifiedMember) RootType() reflect.Type {
	if len(q.chain) == 0 {
		return nil
	}

	return q.chain[0].Type()
}

// Depth is the number of non-root steps.
func (q *QualifiedMember) Depth() int {
	if len(q.chain) == 0 {
		return 0
	}

	return len(q.chain) - 1
}

// Chain returns a copy of the member chain, root included.
func (q *QualifiedMember) Chain() []Member {
	return append([]Member(nil), q.chain...)
}

// Names returns the non-root member names.
func (q *QualifiedMember) Names() []string {
	if len(q.chain) < 2 {
		return nil
	}

	names := make([]string, 0, len(q.chain)-1)
	for _, m := range q.chain[1:] {
		names = append(names, m.Name())
	}

	return names
}

// Path returns the dotted path, e.g. "Value.Line1" or "Items[i].Name".
func (q *QualifiedMember) Path() string { return q.path }

// IsAll reports whether q is the match-everything wildcard.
func (q *QualifiedMember) IsAll() bool { return q.all }

// String returns the path, or the root type name for an empty path.
func (q *QualifiedMember) String() string {
	if q.path == "" && len(q.chain) > 0 && q.chain[0].Type() != nil {
		return q.chain[0].Type().String()
	}

	return q.path
}

// Matches reports whether both chains have the same length and every
// non-root step has the same name.
func (q *QualifiedMember) Matches(other *QualifiedMember) bool {
	if q.all || other.all {
		return true
	}

	if len(q.chain) != len(other.chain) {
		return false
	}

	for i := 1; i < len(q.chain); i++ {
		if q.chain[i].Name() != other.chain[i].Name() {
			return false
		}
	}

	return true
}

// Equals reports path equality where each step may be declared on a type
// assignable to or from the other's declaring type.
func (q *QualifiedMember) Equals(other *QualifiedMember) bool {
	if q == other {
		return true
	}

	if q.all || other.all {
		return q.all == other.all
	}

	if q.path != other.path || len(q.chain) != len(other.chain) {
		return false
	}

	for i := range q.chain {
		a, b := q.chain[i], other.chain[i]
		if a.Name() != b.Name() {
			return false
		}

		if !covariant(a.DeclaringType(), b.DeclaringType()) {
			return false
		}
	}

	return true
}

func covariant(a, b reflect.Type) bool {
	return AssignableFrom(a, b) || AssignableFrom(b, a)
}

func joinPath(path string, m Member) string {
	seg := m.String()
	if path == "" || m.Kind() == KindElement || m.Kind() == KindEntry {
		return path + seg
	}

	var sb strings.Builder

	sb.Grow(len(path) + 1 + len(seg))
	sb.WriteString(path)
	sb.WriteByte('.')
	sb.WriteString(seg)

	return sb.String()
}
