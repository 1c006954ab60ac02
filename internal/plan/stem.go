package plan

import "strconv"

// Stem hands out numbered local names ("t1", "t2", ...) for plan
// renderings, skipping reserved names.
type Stem struct {
	stem  string
	taken map[string]bool
	last  int
}

// NewStem creates a stem. Reserved names are never returned.
func NewStem(stem string, reserved ...string) *Stem {
	taken := make(map[string]bool, len(reserved))
	for _, name := range reserved {
		taken[name] = true
	}

	return &Stem{stem: stem, taken: taken}
}

// Next returns the next free name.
func (s *Stem) Next() string {
	for {
		s.last++

		name := s.stem + strconv.Itoa(s.last)
		if !s.taken[name] {
			s.taken[name] = true
			return name
		}
	}
}
