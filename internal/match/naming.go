package match

import (
	"errors"
	"strconv"
	"strings"

	"graph-mapper/internal/member"
)

// ErrInvalidElementPattern is returned for element patterns without exactly
// one index placeholder.
var ErrInvalidElementPattern = errors.New("element pattern must contain exactly one 'i' placeholder")

// Settings configures how keys are derived from member names for one keyed
// source category.
type Settings struct {
	// Separator joins nested member names: "Value.Line1", "Value_Line1".
	Separator string
	// ElementPattern addresses enumerable elements; "i" is the zero-based index.
	ElementPattern string
	// Synonyms maps a normalized member name to extra names to try.
	Synonyms map[string][]string
}

// DictionaryDefaults are the settings for map sources and targets.
func DictionaryDefaults() Settings {
	return Settings{Separator: ".", ElementPattern: "[i]"}
}

// DynamicDefaults are the settings for Dynamic sources and targets.
func DynamicDefaults() Settings {
	return Settings{Separator: "_", ElementPattern: "_i_"}
}

// ValidatePattern checks an element pattern.
func ValidatePattern(pattern string) error {
	if strings.Count(pattern, "i") != 1 {
		return ErrInvalidElementPattern
	}

	return nil
}

// NameVariants lists the names to try for m, in priority order: the declared
// name, tag names, casing variants and configured synonyms. Names differing
// only by case are listed once.
func (s Settings) NameVariants(m member.Member) []string {
	var variants []string

	add := func(name string) {
		if name == "" {
			return
		}

		for _, v := range variants {
			if strings.EqualFold(v, name) {
				return
			}
		}

		variants = append(variants, name)
	}

	add(m.Name())

	for _, alt := range m.AlternateNames() {
		add(alt)
	}

	add(CamelCase(m.Name()))
	add(PascalCase(m.Name()))
	add(SnakeCase(m.Name()))

	for _, syn := range s.Synonyms[NormalizeIdent(m.Name())] {
		add(syn)
	}

	return variants
}

// Join appends name to prefix with the separator, never doubling it.
func (s Settings) Join(prefix, name string) string {
	if prefix == "" {
		return name
	}

	if s.Separator == "" || strings.HasSuffix(prefix, s.Separator) || strings.HasPrefix(name, s.Separator) {
		return prefix + name
	}

	return prefix + s.Separator + name
}

// ChildPrefixes returns the key prefixes of a member below the given parent
// prefixes: the Cartesian product of parents and names, joined with the
// separator first, then flattened (concatenated).
func (s Settings) ChildPrefixes(parents, names []string) []string {
	out := make([]string, 0, len(parents)*len(names)*2)
	seen := make(map[string]bool, cap(out))

	add := func(key string) {
		folded := strings.ToLower(key)
		if seen[folded] {
			return
		}

		seen[folded] = true
		out = append(out, key)
	}

	for _, p := range parents {
		for _, n := range names {
			add(s.Join(p, n))
		}
	}

	for _, p := range parents {
		if p == "" {
			continue
		}

		for _, n := range names {
			add(p + n)
		}
	}

	return out
}

// ElementKey returns the key of element index below prefix.
func (s Settings) ElementKey(prefix string, index int) string {
	pattern := s.ElementPattern
	if pattern == "" {
		pattern = "[i]"
	}

	i := strings.Index(pattern, "i")
	if i < 0 {
		return prefix + pattern + strconv.Itoa(index)
	}

	return prefix + pattern[:i] + strconv.Itoa(index) + pattern[i+1:]
}

// ElementPrefixes returns the element keys of index below every parent prefix.
func (s Settings) ElementPrefixes(parents []string, index int) []string {
	out := make([]string, 0, len(parents))
	for _, p := range parents {
		out = append(out, s.ElementKey(p, index))
	}

	return out
}

// FindKey returns the first candidate, in candidate order, present in keys.
// Comparison ignores case; the key is returned as stored.
func FindKey(keys, candidates []string) (string, bool) {
	for _, c := range candidates {
		for _, k := range keys {
			if strings.EqualFold(k, c) {
				return k, true
			}
		}
	}

	return "", false
}

// HasKeyWithPrefix reports whether any key starts with one of the prefixes,
// ignoring case.
func HasKeyWithPrefix(keys, prefixes []string) bool {
	for _, p := range prefixes {
		for _, k := range keys {
			if hasPrefixFold(k, p) {
				return true
			}
		}
	}

	return false
}

// Narrow keeps the prefixes at least one key starts with.
func Narrow(keys, prefixes []string) []string {
	var out []string

	for _, p := range prefixes {
		if HasKeyWithPrefix(keys, []string{p}) {
			out = append(out, p)
		}
	}

	return out
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
