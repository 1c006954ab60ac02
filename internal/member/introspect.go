package member

import (
	"reflect"
	"strings"
	"sync"
)

// Enumerator discovers the members of a type. The rest of the mapper only
// depends on this capability, not on how members are found.
type Enumerator interface {
	EnumerateMembers(t reflect.Type) []Member
}

// Introspector enumerates struct members with runtime reflection and caches
// the result per type.
type Introspector struct {
	mu      sync.RWMutex
	members map[reflect.Type][]Member
}

// NewIntrospector creates an empty introspector.
func NewIntrospector() *Introspector {
	return &Introspector{members: make(map[reflect.Type][]Member)}
}

// EnumerateMembers returns the exported, visible fields of t (pointers are
// looked through) in declaration order. Promoted fields of embedded structs
// appear in place of the embedded field. Fields tagged `map:"-"` are skipped.
// Non-struct types have no members.
func (in *Introspector) EnumerateMembers(t reflect.Type) []Member {
	t = Deref(t)
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	in.mu.RLock()
	members, ok := in.members[t]
	in.mu.RUnlock()

	if ok {
		return members
	}

	members = collectMembers(t)

	in.mu.Lock()
	if existing, ok := in.members[t]; ok {
		members = existing
	} else {
		in.members[t] = members
	}
	in.mu.Unlock()

	return members
}

// Find returns the member of t whose name or tag name equals name, ignoring
// case. Exact matches take priority.
func (in *Introspector) Find(t reflect.Type, name string) (Member, bool) {
	return FindMember(in.EnumerateMembers(t), name)
}

// FindMember searches members by name, then case-insensitively, then by
// alternate name.
func FindMember(members []Member, name string) (Member, bool) {
	for _, m := range members {
		if m.Name() == name {
			return m, true
		}
	}

	for _, m := range members {
		if strings.EqualFold(m.Name(), name) {
			return m, true
		}
	}

	for _, m := range members {
		for _, alt := range m.names {
			if strings.EqualFold(alt, name) {
				return m, true
			}
		}
	}

	return Member{}, false
}

func collectMembers(t reflect.Type) []Member {
	var members []Member

	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}

		if f.Tag.Get("map") == "-" {
			continue
		}

		members = append(members, NewField(t, f))
	}

	return members
}
