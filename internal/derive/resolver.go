package derive

import (
	"reflect"
	"sort"
	"sync"

	"graph-mapper/internal/member"
)

// Resolver answers derived-type queries against a catalog. Package scans and
// per-base results are cached until the catalog changes.
type Resolver struct {
	catalog *Catalog
	members member.Enumerator

	mu       sync.Mutex
	revision uint64
	scans    map[string][]reflect.Type
	bases    map[reflect.Type][]reflect.Type
}

// NewResolver creates a resolver over catalog.
func NewResolver(catalog *Catalog, members member.Enumerator) *Resolver {
	return &Resolver{
		catalog: catalog,
		members: members,
		scans:   make(map[string][]reflect.Type),
		bases:   make(map[reflect.Type][]reflect.Type),
	}
}

// DerivedTypesFor returns the concrete types that may stand in for base,
// most derived first. Every result is a pointer to a struct. Types other
// than interfaces are sealed and resolve to an empty list.
func (r *Resolver) DerivedTypesFor(base reflect.Type) []reflect.Type {
	if base == nil || base.Kind() != reflect.Interface || base.NumMethod() == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if rev := r.catalog.Revision(); rev != r.revision {
		r.revision = rev
		clear(r.scans)
		clear(r.bases)
	}

	if found, ok := r.bases[base]; ok {
		return found
	}

	var candidates []reflect.Type

	for _, t := range r.scan(base.PkgPath()) {
		if reflect.PointerTo(t).Implements(base) {
			candidates = append(candidates, reflect.PointerTo(t))
		}
	}

	ordered := mostDerivedFirst(candidates)
	r.bases[base] = ordered

	return ordered
}

// scan returns the struct types of a package. Callers hold r.mu.
func (r *Resolver) scan(pkgPath string) []reflect.Type {
	if types, ok := r.scans[pkgPath]; ok {
		return types
	}

	var structs []reflect.Type

	for _, t := range r.catalog.Types(pkgPath) {
		if t.Kind() == reflect.Struct {
			structs = append(structs, t)
		}
	}

	r.scans[pkgPath] = structs

	return structs
}

// Distinguishing returns the member names of candidate that no other
// candidate declares, ignoring candidates derived from it. A source exposing
// one of them is taken to describe candidate.
func (r *Resolver) Distinguishing(candidate reflect.Type, candidates []reflect.Type) []string {
	var names []string

	for _, m := range r.members.EnumerateMembers(candidate) {
		shared := false

		for _, other := range candidates {
			if other == candidate || Derives(other, candidate) {
				continue
			}

			if _, ok := member.FindMember(r.members.EnumerateMembers(other), m.Name()); ok {
				shared = true
				break
			}
		}

		if !shared {
			names = append(names, m.Name())
		}
	}

	return names
}

// Roots returns the candidates that derive from no other candidate.
func Roots(candidates []reflect.Type) []reflect.Type {
	var roots []reflect.Type

	for _, c := range candidates {
		root := true

		for _, other := range candidates {
			if other != c && Derives(c, other) {
				root = false
				break
			}
		}

		if root {
			roots = append(roots, c)
		}
	}

	return roots
}

// Derives reports whether derived embeds base, directly or transitively.
func Derives(derived, base reflect.Type) bool {
	d, b := member.Deref(derived), member.Deref(base)

	return d != b && member.AssignableFrom(b, d)
}

// mostDerivedFirst orders candidates so that a type embedding another
// candidate precedes it. Unrelated types keep name order.
func mostDerivedFirst(candidates []reflect.Type) []reflect.Type {
	sorted := append([]reflect.Type(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })

	order, err := topoSort(len(sorted), func(i int) []int {
		var deps []int

		for j := range sorted {
			if j != i && Derives(sorted[j], sorted[i]) {
				deps = append(deps, j)
			}
		}

		return deps
	})
	if err != nil {
		return sorted
	}

	out := make([]reflect.Type, 0, len(order))
	for _, i := range order {
		out = append(out, sorted[i])
	}

	return out
}
