package datasource

import "sync"

// NestedAccessFinder collects the nullable member accesses an expression
// dereferences on its way to the value, e.g. a.B and a.B.C in a.B.C.D.
//
// The finder accumulates into shared scratch state, so each FindIn call runs
// under the finder's lock.
type NestedAccessFinder struct {
	mu      sync.Mutex
	scratch []*Access
	seen    map[*Access]bool
}

// FindIn returns the nullable intermediate accesses of expr, outermost first.
func (f *NestedAccessFinder) FindIn(expr Expr) []*Access {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scratch = f.scratch[:0]
	if f.seen == nil {
		f.seen = make(map[*Access]bool)
	}

	clear(f.seen)
	f.visit(expr, false)

	found := make([]*Access, len(f.scratch))
	for i, a := range f.scratch {
		found[len(found)-1-i] = a
	}

	return found
}

func (f *NestedAccessFinder) visit(expr Expr, dereferenced bool) {
	switch e := expr.(type) {
	case *Access:
		if dereferenced && e.Member.IsNullable() && !f.seen[e] {
			f.seen[e] = true
			f.scratch = append(f.scratch, e)
		}

		f.visit(e.From, true)
	case *Convert:
		f.visit(e.From, false)
	case *MapCall:
		f.visit(e.From, false)
	}
}

// Guard turns nested accesses into NotNil conditions.
func Guard(nested []*Access) Condition {
	conds := make([]Condition, 0, len(nested))
	for _, a := range nested {
		conds = append(conds, &NotNil{Expr: a})
	}

	return And(conds...)
}
