package mapping

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

var (
	// ErrInvalidRule is returned for rules that can never apply.
	ErrInvalidRule = errors.New("invalid mapping rule")
	// ErrInvalidDerivedRule is returned for derived-type rules whose concrete
	// type cannot stand in for the target.
	ErrInvalidDerivedRule = errors.New("invalid derived type rule")
)

// Config is the mapping configuration shared by every plan of a mapper.
// Every mutation bumps the revision, so plans built against an older
// configuration are never reused.
type Config struct {
	mu       sync.RWMutex
	revision uint64

	dataSources []DataSourceRule
	ignores     []IgnoreRule
	keys        []KeyRule
	naming      []NamingRule
	synonyms    map[string][]string
	callbacks   []CallbackRule
	factories   []FactoryRule
	identifiers []IdentifierRule
	derived     []DerivedRule
}

// NewConfig creates an empty configuration.
func NewConfig() *Config {
	return &Config{synonyms: make(map[string][]string)}
}

// Revision identifies the current state of the configuration.
func (c *Config) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.revision
}

func (c *Config) update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fn()
	c.revision++
}

// AddDataSource registers a custom data source.
func (c *Config) AddDataSource(r DataSourceRule) error {
	path, err := CanonicalPath(r.TargetPath)
	if err != nil {
		return err
	}

	if (r.SourcePath == "") == (r.Value == nil) {
		return fmt.Errorf("%w: data source for %q needs exactly one of a source path or a value", ErrInvalidRule, path)
	}

	if r.SourcePath != "" {
		if r.SourcePath, err = CanonicalPath(r.SourcePath); err != nil {
			return err
		}
	}

	r.TargetPath = path
	c.update(func() { c.dataSources = append(c.dataSources, r) })

	return nil
}

// AddIgnore registers an ignored target member.
func (c *Config) AddIgnore(r IgnoreRule) error {
	path, err := CanonicalPath(r.TargetPath)
	if err != nil {
		return err
	}

	r.TargetPath = path
	c.update(func() { c.ignores = append(c.ignores, r) })

	return nil
}

// AddKey registers a custom key for a member of a keyed source or target.
func (c *Config) AddKey(r KeyRule) error {
	if r.Scope != ScopeDictionaries && r.Scope != ScopeDynamics {
		return fmt.Errorf("%w: keys apply to dictionaries or dynamics, not %s", ErrInvalidRule, r.Scope)
	}

	if r.Key == "" {
		return fmt.Errorf("%w: empty key for %q", ErrInvalidRule, r.Path)
	}

	path, err := CanonicalPath(r.Path)
	if err != nil {
		return err
	}

	r.Path = path
	c.update(func() { c.keys = append(c.keys, r) })

	return nil
}

// AddNaming overrides the separator or element pattern of a keyed scope.
func (c *Config) AddNaming(r NamingRule) error {
	if r.Scope == ScopeTyped {
		return fmt.Errorf("%w: naming rules apply to keyed scopes", ErrInvalidRule)
	}

	if r.ElementPattern != "" {
		if err := match.ValidatePattern(r.ElementPattern); err != nil {
			return err
		}
	}

	c.update(func() { c.naming = append(c.naming, r) })

	return nil
}

// AddSynonyms registers alternative names tried for members named name.
func (c *Config) AddSynonyms(name string, alternatives ...string) {
	key := match.NormalizeIdent(name)

	c.update(func() {
		for _, alt := range alternatives {
			if !slices.Contains(c.synonyms[key], alt) {
				c.synonyms[key] = append(c.synonyms[key], alt)
			}
		}
	})
}

// AddCallback registers a creation callback.
func (c *Config) AddCallback(r CallbackRule) error {
	if r.Func == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidRule)
	}

	c.update(func() { c.callbacks = append(c.callbacks, r) })

	return nil
}

// AddFactory registers a target factory.
func (c *Config) AddFactory(r FactoryRule) error {
	if r.Factory == nil {
		return fmt.Errorf("%w: nil factory", ErrInvalidRule)
	}

	c.update(func() { c.factories = append(c.factories, r) })

	return nil
}

// AddIdentifier registers the registry identity of a source type.
func (c *Config) AddIdentifier(r IdentifierRule) error {
	if r.Source == nil || r.Func == nil {
		return fmt.Errorf("%w: identifier needs a source type and a func", ErrInvalidRule)
	}

	c.update(func() { c.identifiers = append(c.identifiers, r) })

	return nil
}

// AddDerived registers a conditional derived-type rule. Rules are tested in
// the order they are added.
func (c *Config) AddDerived(r DerivedRule) error {
	if r.Concrete == nil || (r.IfKey == "" && r.Predicate == nil) {
		return fmt.Errorf("%w: needs a concrete type and a key or predicate", ErrInvalidDerivedRule)
	}

	if r.Target != nil && !member.AssignableFrom(r.Target, r.Concrete) {
		return fmt.Errorf("%w: %s cannot stand in for %s", ErrInvalidDerivedRule, r.Concrete, r.Target)
	}

	if r.Target != nil && r.Target.Kind() == reflect.Interface && r.Concrete.Kind() != reflect.Pointer &&
		!r.Concrete.Implements(r.Target) {
		r.Concrete = reflect.PointerTo(r.Concrete)
	}

	c.update(func() { c.derived = append(c.derived, r) })

	return nil
}

// RemoveOrigin drops every rule registered with the given origin.
func (c *Config) RemoveOrigin(origin string) {
	c.update(func() {
		c.dataSources = slices.DeleteFunc(c.dataSources, func(r DataSourceRule) bool { return r.Origin == origin })
		c.ignores = slices.DeleteFunc(c.ignores, func(r IgnoreRule) bool { return r.Origin == origin })
		c.keys = slices.DeleteFunc(c.keys, func(r KeyRule) bool { return r.Origin == origin })
		c.naming = slices.DeleteFunc(c.naming, func(r NamingRule) bool { return r.Origin == origin })
		c.callbacks = slices.DeleteFunc(c.callbacks, func(r CallbackRule) bool { return r.Origin == origin })
		c.factories = slices.DeleteFunc(c.factories, func(r FactoryRule) bool { return r.Origin == origin })
		c.identifiers = slices.DeleteFunc(c.identifiers, func(r IdentifierRule) bool { return r.Origin == origin })
		c.derived = slices.DeleteFunc(c.derived, func(r DerivedRule) bool { return r.Origin == origin })
	})
}

// DataSourceFor returns the data source configured for the target member
// path. The most specific rule wins; later rules win ties.
func (c *Config) DataSourceFor(q Query, path string) (DataSourceRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best  DataSourceRule
		score = -1
	)

	for _, r := range c.dataSources {
		if r.TargetPath != path || !r.Applies(q) {
			continue
		}

		if s := r.specificity(q); s >= score {
			best, score = r, s
		}
	}

	return best, score >= 0
}

// IsIgnored reports whether the target member path is ignored.
func (c *Config) IsIgnored(q Query, path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.ignores {
		if r.TargetPath == path && r.Applies(q) {
			return true
		}
	}

	return false
}

// FullKey returns the whole key configured for a member path of object.
func (c *Config) FullKey(scope Scope, object reflect.Type, rs RuleSet, path string) (string, bool) {
	return c.key(scope, object, rs, path, true)
}

// MemberKey returns the key configured for a member's own name segment.
func (c *Config) MemberKey(scope Scope, object reflect.Type, rs RuleSet, path string) (string, bool) {
	return c.key(scope, object, rs, path, false)
}

func (c *Config) key(scope Scope, object reflect.Type, rs RuleSet, path string, full bool) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.keys) - 1; i >= 0; i-- {
		r := c.keys[i]
		if r.Full == full && r.Path == path && r.applies(scope, object, rs) {
			return r.Key, true
		}
	}

	return "", false
}

// FullKeysBelow returns the full keys configured for members beneath path,
// the latest rule per member.
func (c *Config) FullKeysBelow(scope Scope, object reflect.Type, rs RuleSet, path string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		keys []string
		seen = map[string]bool{}
	)

	for i := len(c.keys) - 1; i >= 0; i-- {
		r := c.keys[i]
		if !r.Full || seen[r.Path] || !IsBelow(r.Path, path) || !r.applies(scope, object, rs) {
			continue
		}

		seen[r.Path] = true
		keys = append(keys, r.Key)
	}

	return keys
}

// Naming returns the key naming settings of a keyed scope for object.
// Scopes other than dictionaries and dynamics get the dictionary defaults.
func (c *Config) Naming(scope Scope, object reflect.Type) match.Settings {
	s := match.DictionaryDefaults()
	if scope == ScopeDynamics {
		s = match.DynamicDefaults()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.naming {
		if !r.Scope.Covers(scope) || !typeApplies(r.Object, object) {
			continue
		}

		if r.Separator != "" {
			s.Separator = r.Separator
		}

		if r.ElementPattern != "" {
			s.ElementPattern = r.ElementPattern
		}
	}

	if len(c.synonyms) > 0 {
		s.Synonyms = make(map[string][]string, len(c.synonyms))
		for k, v := range c.synonyms {
			s.Synonyms[k] = slices.Clone(v)
		}
	}

	return s
}

// Synonyms returns the alternative names of a member name.
func (c *Config) Synonyms(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.synonyms[match.NormalizeIdent(name)])
}

// Callbacks returns the callbacks of the phase in registration order.
func (c *Config) Callbacks(q Query, phase Phase) []Callback {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []Callback

	for _, r := range c.callbacks {
		if r.Phase == phase && r.Applies(q) {
			found = append(found, r.Func)
		}
	}

	return found
}

// Factories returns the factories applying to q, most specific first.
func (c *Config) Factories(q Query) []FactoryRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []FactoryRule

	for _, r := range c.factories {
		if r.Applies(q) {
			found = append(found, r)
		}
	}

	slices.SortStableFunc(found, func(a, b FactoryRule) int {
		return b.specificity(q) - a.specificity(q)
	})

	return found
}

// Specificity ranks how closely a factory rule selects q.
func (r FactoryRule) Specificity(q Query) int {
	return r.specificity(q)
}

// Identifier returns the identifier configured for a source type.
func (c *Config) Identifier(source reflect.Type) (IdentifierFunc, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.identifiers) - 1; i >= 0; i-- {
		if typeApplies(c.identifiers[i].Source, source) {
			return c.identifiers[i].Func, true
		}
	}

	return nil, false
}

// DerivedRules returns the derived-type rules applying to q, in declared order.
func (c *Config) DerivedRules(q Query) []DerivedRule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var found []DerivedRule

	for _, r := range c.derived {
		if r.Applies(q) {
			found = append(found, r)
		}
	}

	return found
}

// HasRulesBelow reports whether any member rule targets a path beneath path
// for the target of q. Such plans depend on where they are reached from.
func (c *Config) HasRulesBelow(q Query, path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.dataSources {
		if IsBelow(r.TargetPath, path) && r.Applies(q) {
			return true
		}
	}

	for _, r := range c.ignores {
		if IsBelow(r.TargetPath, path) && r.Applies(q) {
			return true
		}
	}

	for _, r := range c.keys {
		if IsBelow(r.Path, path) && (r.applies(q.Scope, q.Target, q.RuleSet) || r.applies(q.Scope, q.Source, q.RuleSet)) {
			return true
		}
	}

	return false
}
