package mapping

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

var introspector = member.NewIntrospector()

// Validate validates a mapping document against the types the resolver knows.
// This is a structural validation step only; it doesn't try to prove value
// convertibility.
func Validate(doc *Document, resolver TypeResolver) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if doc == nil {
		res.AddError(diagnostic.CodeInvalidConfig, "mapping document is nil", "", "")
		return res
	}

	if doc.Version != "1" {
		res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("unsupported version %q", doc.Version), "", "")
	}

	for name, settings := range map[string]*KeyedSettings{"dictionaries": doc.Dictionaries, "dynamics": doc.Dynamics} {
		if settings == nil || settings.ElementPattern == "" {
			continue
		}

		if err := match.ValidatePattern(settings.ElementPattern); err != nil {
			res.AddError(diagnostic.CodeInvalidConfig, err.Error(), name, settings.ElementPattern)
		}
	}

	for i := range doc.Mappings {
		validateTypeMapping(res, resolver, &doc.Mappings[i])
	}

	return res
}

func validateTypeMapping(res *diagnostic.Diagnostics, resolver TypeResolver, tm *TypeMapping) {
	label := tm.Label()

	for _, rs := range tm.RuleSets {
		if _, err := ParseRuleSet(rs); err != nil {
			res.AddError(diagnostic.CodeInvalidConfig, err.Error(), label, "")
		}
	}

	src, dst, ok := resolvePair(res, resolver, tm)
	if !ok {
		return
	}

	for sp, tp := range tm.OneToOne {
		if tm.Source == "" {
			res.AddError(diagnostic.CodeInvalidConfig, "121 links need a typed source", label, tp)
			continue
		}

		if err := validatePath(sp, src); err != nil {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("invalid source path in 121: %v", err), label, sp)
		}

		if err := validatePath(tp, dst); err != nil {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("invalid target path in 121: %v", err), label, tp)
		}
	}

	for _, p := range tm.Ignore {
		if err := validatePath(p, dst); err != nil {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("invalid ignore path: %v", err), label, p)
		}
	}

	validateKeys(res, tm, src, dst)
	validateDerived(res, resolver, tm, dst)
}

func resolvePair(res *diagnostic.Diagnostics, resolver TypeResolver, tm *TypeMapping) (src, dst reflect.Type, ok bool) {
	label := tm.Label()
	ok = true

	resolve := func(name, side string) reflect.Type {
		t, found := resolver.Lookup(name)
		if !found {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("%s type %q not found", side, name), label, name)
			ok = false
		}

		return t
	}

	switch {
	case tm.Source != "" && tm.From != "":
		res.AddError(diagnostic.CodeInvalidConfig, "source and from are exclusive", label, "")
		ok = false
	case tm.Source != "":
		src = resolve(tm.Source, "source")
	case tm.From != "":
		if _, known := parseScope(tm.From); !known {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("unknown source scope %q", tm.From), label, "")
			ok = false
		}
	}

	switch {
	case tm.Target != "" && tm.To != "":
		res.AddError(diagnostic.CodeInvalidConfig, "target and to are exclusive", label, "")
		ok = false
	case tm.Target != "":
		dst = resolve(tm.Target, "target")
	case tm.To != "":
		if _, known := parseScope(tm.To); !known {
			res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("unknown target scope %q", tm.To), label, "")
			ok = false
		}
	default:
		res.AddError(diagnostic.CodeInvalidConfig, "mapping needs a target or to", label, "")
		ok = false
	}

	return src, dst, ok
}

func validateKeys(res *diagnostic.Diagnostics, tm *TypeMapping, src, dst reflect.Type) {
	if len(tm.FullKeys) == 0 && len(tm.MemberKeys) == 0 {
		return
	}

	label := tm.Label()

	object, typed := dst, tm.Target
	if tm.To != "" {
		object, typed = src, tm.Source
	}

	if (tm.From == "" && tm.To == "") || typed == "" {
		res.AddError(diagnostic.CodeInvalidConfig, "keys need a keyed side and a typed side", label, "")
		return
	}

	for _, keys := range []map[string]string{tm.FullKeys, tm.MemberKeys} {
		for p, key := range keys {
			if key == "" {
				res.AddError(diagnostic.CodeInvalidConfig, "empty key", label, p)
			}

			if err := validatePath(p, object); err != nil {
				res.AddError(diagnostic.CodeInvalidConfig, fmt.Sprintf("invalid key path: %v", err), label, p)
			}
		}
	}
}

func validateDerived(res *diagnostic.Diagnostics, resolver TypeResolver, tm *TypeMapping, dst reflect.Type) {
	label := tm.Label()

	for _, d := range tm.Derived {
		if d.IfKey == "" {
			res.AddError(diagnostic.CodeInvalidDerivedRule, "derived type needs if_key", label, d.Type)
		}

		concrete, found := resolver.Lookup(d.Type)
		if !found {
			res.AddError(diagnostic.CodeInvalidDerivedRule, fmt.Sprintf("derived type %q not found", d.Type), label, d.Type)
			continue
		}

		if tm.Target == "" || (dst != nil && dst.Kind() != reflect.Interface) {
			res.AddError(diagnostic.CodeInvalidDerivedRule,
				"derived types apply to interface targets only", label, d.Type)

			continue
		}

		if dst != nil && concrete != nil && !member.AssignableFrom(dst, concrete) {
			res.AddError(diagnostic.CodeInvalidDerivedRule,
				fmt.Sprintf("%s does not implement %s", concrete, dst), label, d.Type)
		}
	}
}

// validatePath walks a member path through t. A nil t only checks the
// path syntax.
func validatePath(path string, t reflect.Type) error {
	p, err := ParsePath(path)
	if err != nil || t == nil {
		return err
	}

	cur := t

	for _, seg := range p.Segments {
		cur = member.Deref(cur)

		switch member.Classify(cur) {
		case member.CategoryComplex:
			if cur.Kind() == reflect.Interface {
				// members of interface-typed values are known per implementation
				return nil
			}
		case member.CategoryDictionary, member.CategoryDynamic:
			return nil
		default:
			return fmt.Errorf("%w: %q is not a struct at %q", ErrInvalidPath, cur, seg.Name)
		}

		m, ok := introspector.Find(cur, seg.Name)
		if !ok {
			return fmt.Errorf("%w: %s has no member %q", ErrInvalidPath, cur, seg.Name)
		}

		cur = m.Type()

		if seg.Element {
			elem := member.Deref(cur)
			if member.Classify(elem) != member.CategoryEnumerable {
				return fmt.Errorf("%w: %s.%s is not enumerable", ErrInvalidPath, m.DeclaringType(), seg.Name)
			}

			cur = elem.Elem()
		}
	}

	return nil
}
