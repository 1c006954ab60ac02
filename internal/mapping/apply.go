package mapping

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidDocument is returned when a document fails validation.
var ErrInvalidDocument = errors.New("invalid mapping document")

// Apply validates doc and replaces the rules previously applied under origin
// with the rules it declares.
func Apply(doc *Document, cfg *Config, resolver TypeResolver, origin string) error {
	if diags := Validate(doc, resolver); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, diags.Error())
	}

	cfg.RemoveOrigin(origin)

	for scope, settings := range map[Scope]*KeyedSettings{ScopeDictionaries: doc.Dictionaries, ScopeDynamics: doc.Dynamics} {
		if settings == nil {
			continue
		}

		err := cfg.AddNaming(NamingRule{
			Scope:          scope,
			Separator:      settings.Separator,
			ElementPattern: settings.ElementPattern,
			Origin:         origin,
		})
		if err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(doc.Synonyms) {
		cfg.AddSynonyms(name, doc.Synonyms[name]...)
	}

	for i := range doc.Mappings {
		if err := applyTypeMapping(&doc.Mappings[i], cfg, resolver, origin); err != nil {
			return fmt.Errorf("%s: %w", doc.Mappings[i].Label(), err)
		}
	}

	return nil
}

func applyTypeMapping(tm *TypeMapping, cfg *Config, resolver TypeResolver, origin string) error {
	var (
		sel Selector
		err error
	)

	for _, name := range tm.RuleSets {
		rs, perr := ParseRuleSet(name)
		if perr != nil {
			return perr
		}

		sel.RuleSets = append(sel.RuleSets, rs)
	}

	sel.Scope = ScopeTyped
	if scope, ok := parseScope(tm.From); ok {
		sel.Scope = scope
	}

	sel.Source, _ = resolver.Lookup(tm.Source)
	sel.Target, _ = resolver.Lookup(tm.Target)

	keyScope, object := sel.Scope, sel.Target
	if scope, ok := parseScope(tm.To); ok {
		keyScope, object = scope, sel.Source
	}

	for _, sp := range sortedKeys(tm.OneToOne) {
		err = cfg.AddDataSource(DataSourceRule{Selector: sel, TargetPath: tm.OneToOne[sp], SourcePath: sp, Origin: origin})
		if err != nil {
			return err
		}
	}

	for _, p := range tm.Ignore {
		if err = cfg.AddIgnore(IgnoreRule{Selector: sel, TargetPath: p, Origin: origin}); err != nil {
			return err
		}
	}

	for full, keys := range map[bool]map[string]string{true: tm.FullKeys, false: tm.MemberKeys} {
		for _, p := range sortedKeys(keys) {
			err = cfg.AddKey(KeyRule{
				Scope:    keyScope,
				Object:   object,
				RuleSets: sel.RuleSets,
				Path:     p,
				Key:      keys[p],
				Full:     full,
				Origin:   origin,
			})
			if err != nil {
				return err
			}
		}
	}

	for _, d := range tm.Derived {
		concrete, _ := resolver.Lookup(d.Type)

		err = cfg.AddDerived(DerivedRule{Selector: sel, Concrete: concrete, IfKey: d.IfKey, Origin: origin})
		if err != nil {
			return err
		}
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
