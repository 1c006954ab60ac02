package plan

import (
	"fmt"
	"strings"

	"github.com/minio/highwayhash"

	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/member"
)

// fingerprintKey is the 32-byte HighwayHash key of plan fingerprints.
var fingerprintKey = []byte("graph-mapper/plan/fingerprint/00")

// Plan is the ordered operation list for one key.
type Plan struct {
	Key Key
	// Category is the target category the plan variant was chosen by.
	Category    member.Category
	Ops         []Op
	Diagnostics diagnostic.Diagnostics
	// Nested lists the keys of nested plans known at build time. Plans for
	// interface-typed values are only known at execution.
	Nested []Key
}

func (p *Plan) add(op Op) {
	p.Ops = append(p.Ops, op)
}

func (p *Plan) need(k Key) {
	for _, n := range p.Nested {
		if n == k {
			return
		}
	}

	p.Nested = append(p.Nested, k)
}

// Populations returns the member populations of the plan.
func (p *Plan) Populations() []MemberPopulation {
	var found []MemberPopulation

	for _, op := range p.Ops {
		if pop, ok := op.(*Populate); ok {
			found = append(found, pop.MemberPopulation)
		}
	}

	return found
}

// NoOps returns the no-op markers of the plan.
func (p *Plan) NoOps() []*NoOp {
	var found []*NoOp

	for _, op := range p.Ops {
		if n, ok := op.(*NoOp); ok {
			found = append(found, n)
		}
	}

	return found
}

// String renders the plan, one operation per line.
func (p *Plan) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "plan %s [%s]\n", p.Key, p.Category)

	for _, op := range p.Ops {
		b.WriteString("  ")
		b.WriteString(op.String())
		b.WriteByte('\n')
	}

	return b.String()
}

// Fingerprint hashes the rendering of the plan. Plans rendering the same
// operations share a fingerprint.
func (p *Plan) Fingerprint() uint64 {
	return highwayhash.Sum64([]byte(p.String()), fingerprintKey)
}
