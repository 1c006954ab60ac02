package engine

import "graph-mapper/internal/plan"

// Dealer hands out the plan keys still to be built, each once, in the order
// they were first needed.
type Dealer struct {
	needs []plan.Key
	done  map[plan.Key]struct{}
}

// NextNeeds returns the next key to build and marks it done.
func (d *Dealer) NextNeeds() (plan.Key, bool) {
	for len(d.needs) > 0 {
		key := d.needs[0]
		d.needs = d.needs[1:]

		if _, exists := d.done[key]; !exists {
			d.Done(key)
			return key, true
		}
	}

	return plan.Key{}, false
}

// Needs queues keys that are not done yet.
func (d *Dealer) Needs(keys ...plan.Key) {
	for _, key := range keys {
		if _, exists := d.done[key]; !exists {
			d.needs = append(d.needs, key)
		}
	}
}

// Done marks key as built.
func (d *Dealer) Done(key plan.Key) {
	if d.done == nil {
		d.done = make(map[plan.Key]struct{})
	}

	d.done[key] = struct{}{}
}
