package plan

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

// buildDictionary assembles the plan of a map or Dynamic target.
func (b *Builder) buildDictionary(p *Plan) error {
	key := p.Key
	dynamic := p.Category == member.CategoryDynamic

	if !dynamic && !member.HasStringKey(key.Target) {
		b.unsupportedKey(p)
		return nil
	}

	targetScope := mapping.ScopeDictionaries
	valueType := anyType

	if dynamic {
		targetScope = mapping.ScopeDynamics
	} else {
		valueType = member.Deref(key.Target).Elem()
	}

	q := key.Query(sourceScope(key.Source))

	strategy, err := construct.Resolve(b.config, q)
	if err != nil {
		return err
	}

	name := NewStem("t").Next()
	p.add(&Construct{Strategy: strategy, Local: true, Name: name})

	settings := b.config.Naming(targetScope, key.Source)
	source := member.Deref(key.Source)
	category := member.Classify(key.Source)

	switch {
	case category == member.CategoryDictionary && source == member.Deref(key.Target):
		value, ok := b.entryValue(p, source.Elem(), valueType)
		if !ok {
			b.unsupported(p, fmt.Sprintf("values of %s cannot be cloned", source))
			return nil
		}

		p.add(&Clone{Value: value})
	case category.IsKeyed():
		value, ok := b.entryValue(p, keyedValueType(key.Source), valueType)
		if !ok {
			b.unsupported(p, fmt.Sprintf("values of %s do not convert to %s", key.Source, valueType))
			return nil
		}

		p.add(&Entries{
			From:   FromKeyed,
			Source: b.config.Naming(sourceScope(key.Source), key.Target),
			Target: settings,
			Value:  value,
		})
	case category == member.CategoryEnumerable:
		b.elementEntries(p, source.Elem(), valueType, settings)
	case category == member.CategoryComplex:
		b.memberEntries(p, targetScope, valueType, settings)
	default:
		b.unsupported(p, fmt.Sprintf("%s cannot populate a dictionary", key.Source))
		return nil
	}

	p.add(&Return{Name: name})

	return nil
}

func (b *Builder) unsupportedKey(p *Plan) {
	reason := fmt.Sprintf("dictionaries keyed by %s cannot be populated", member.Deref(p.Key.Target).Key())
	p.add(&NoOp{Code: diagnostic.CodeUnsupportedKey, Reason: reason})
	p.add(&Return{})
	p.Diagnostics.AddInfo(diagnostic.CodeUnsupportedKey, reason, p.Key.String(), "")
}

// entryValue maps an entry value of type from to the target value type.
func (b *Builder) entryValue(p *Plan, from, to reflect.Type) (datasource.Expr, bool) {
	if to == anyType {
		return &datasource.Element{T: from}, true
	}

	req := datasource.Request{
		RuleSet:  p.Key.RuleSet,
		Source:   p.Key.Source,
		Target:   p.Key.Target,
		Member:   member.CreateEntryMember(p.Key.Target, "[key]", to),
		Position: p.Key.Position,
	}

	value, ok := b.pipeline.Adapt(&datasource.Element{T: from}, req, to)
	if ok {
		b.collectNested(p, value)
	}

	return value, ok
}

func (b *Builder) elementEntries(p *Plan, elem, valueType reflect.Type, settings match.Settings) {
	if isNested(elem) && !isNested(valueType) {
		p.add(&Entries{From: FromElements, Target: settings, Value: &datasource.Element{T: elem}, Flatten: true})

		if elem.Kind() != reflect.Interface {
			p.need(p.Key.Nested(elem, p.Key.Target, datasource.Position{}))
		}

		return
	}

	value, ok := b.entryValue(p, elem, valueType)
	if !ok {
		b.unsupported(p, fmt.Sprintf("elements of %s do not convert to %s", p.Key.Source, valueType))
		return
	}

	p.add(&Entries{From: FromElements, Target: settings, Value: value})
}

// memberEntries writes the members of an object source as entries. Simple
// members become entries; non-simple ones are flattened below their key
// unless the dictionary stores non-simple values.
func (b *Builder) memberEntries(p *Plan, scope mapping.Scope, valueType reflect.Type, settings match.Settings) {
	key := p.Key
	q := key.Query(sourceScope(key.Source))
	from := &datasource.Source{T: key.Source}

	for _, m := range b.members.EnumerateMembers(key.Source) {
		if b.config.IsIgnored(q, m.Name()) {
			p.add(&NoOp{Path: m.Name(), Code: diagnostic.CodeIgnoredMember, Reason: "ignored"})
			continue
		}

		entry := &SetEntry{Member: m, Key: m.Name(), Settings: settings}

		if k, ok := b.config.FullKey(scope, key.Source, key.RuleSet, m.Name()); ok {
			entry.Key, entry.Full = k, true
		} else if k, ok := b.config.MemberKey(scope, key.Source, key.RuleSet, m.Name()); ok {
			entry.Key = k
		}

		access := &datasource.Access{From: from, Member: m}

		switch {
		case isNested(m.Type()) && !isNested(valueType):
			entry.Value, entry.Flatten = access, true

			if m.Type().Kind() != reflect.Interface {
				p.need(key.Nested(m.Type(), key.Target, datasource.Position{}))
			}
		default:
			value, ok := b.entryValue(p, m.Type(), valueType)
			if !ok {
				reason := fmt.Sprintf("%s does not convert to %s", m.Type(), valueType)
				p.add(&NoOp{Path: m.Name(), Code: diagnostic.CodeUnmatchedMember, Reason: reason})
				p.Diagnostics.AddWarning(diagnostic.CodeUnmatchedMember, reason, key.String(), m.Name())

				continue
			}

			entry.Value = substituteElement(value, access)
		}

		p.add(entry)
	}
}

// substituteElement replaces the element placeholder of an entry value with
// the member access it reads.
func substituteElement(e datasource.Expr, with datasource.Expr) datasource.Expr {
	switch e := e.(type) {
	case *datasource.Element:
		return with
	case *datasource.Convert:
		c := *e
		c.From = substituteElement(e.From, with)

		return &c
	case *datasource.MapCall:
		c := *e
		c.From = substituteElement(e.From, with)

		return &c
	default:
		return e
	}
}
