package plan

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

// buildEnumerable assembles the loop plan of a slice or array target.
func (b *Builder) buildEnumerable(p *Plan) error {
	key := p.Key
	target := member.Deref(key.Target)
	targetElem := target.Elem()

	fixed := -1
	if target.Kind() == reflect.Array {
		fixed = target.Len()
	}

	var (
		kind       LoopKind
		sourceElem reflect.Type
		settings   match.Settings
	)

	switch category := member.Classify(key.Source); {
	case category == member.CategoryEnumerable:
		kind, sourceElem = LoopSlice, member.Deref(key.Source).Elem()
	case category == member.CategoryDynamic || (category == member.CategoryDictionary && member.HasStringKey(key.Source)):
		kind, sourceElem = LoopKeyed, keyedValueType(key.Source)
		settings = b.config.Naming(sourceScope(key.Source), key.Target)
	case category == member.CategoryDictionary:
		kind, sourceElem = LoopEntries, member.Deref(key.Source).Elem()
	default:
		b.unsupported(p, fmt.Sprintf("%s cannot populate %s", key.Source, key.Target))
		return nil
	}

	req := datasource.Request{
		RuleSet:  key.RuleSet,
		Source:   key.Source,
		Target:   key.Target,
		Member:   member.CreateElementMember(key.Target),
		Position: key.Position,
	}

	var element datasource.Expr

	if kind == LoopKeyed && isNested(targetElem) {
		// elements are either nested values under the element key or
		// keys below it, so any source value type will do
		element = &datasource.MapCall{
			From:     &datasource.Element{T: sourceElem},
			Target:   targetElem,
			Member:   req.Member,
			Position: b.pipeline.ChildPosition(req, ""),
			Keyed:    &datasource.Keyed{Settings: settings},
			Existing: key.RuleSet != mapping.CreateNew,
		}
	} else {
		var ok bool
		if element, ok = b.pipeline.Adapt(&datasource.Element{T: sourceElem}, req, targetElem); !ok {
			b.unsupported(p, fmt.Sprintf("elements of %s do not convert to %s", key.Source, targetElem))
			return nil
		}
	}

	strategy, err := construct.Resolve(b.config, key.Query(sourceScope(key.Source)))
	if err != nil {
		return err
	}

	name := NewStem("t").Next()
	p.add(&Construct{Strategy: strategy, Local: true, Name: name})
	p.add(&Loop{Kind: kind, Settings: settings, Element: element, Fixed: fixed})
	p.add(&Return{Name: name})

	b.collectNested(p, element)

	return nil
}
