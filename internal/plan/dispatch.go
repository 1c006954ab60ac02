package plan

import (
	"fmt"
	"reflect"
	"slices"

	"graph-mapper/internal/common"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/derive"
	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
)

// buildDispatch assembles the plan of an interface target. Configured rules
// come first in declared order, then structural tests on the automatically
// found candidates, most derived first.
func (b *Builder) buildDispatch(p *Plan) error {
	key := p.Key
	iface := member.Deref(key.Target)
	scope := sourceScope(key.Source)
	keyed := member.Classify(key.Source).IsKeyed()

	d := &Dispatch{}
	if keyed {
		d.Settings = b.config.Naming(scope, iface)
	}

	for _, r := range b.config.DerivedRules(key.Query(scope)) {
		d.Branches = append(d.Branches, Branch{
			Condition:  derivedCondition(r, keyed, d.Settings),
			Concrete:   r.Concrete,
			Configured: true,
		})
	}

	candidates := b.derived.DerivedTypesFor(iface)

	switch {
	case keyed:
		for _, c := range candidates {
			names := b.derived.Distinguishing(c, candidates)
			if len(names) == 0 {
				continue
			}

			d.Branches = append(d.Branches, Branch{
				Condition: &datasource.HasKeyPrefix{Settings: d.Settings, Names: names},
				Concrete:  c,
			})
		}
	case slices.Contains(candidates, key.Source):
		d.Branches = append(d.Branches, Branch{Concrete: key.Source})
	default:
		sourceMembers := b.members.EnumerateMembers(key.Source)

		for _, c := range candidates {
			if declaresAny(sourceMembers, b.derived.Distinguishing(c, candidates)) {
				d.Branches = append(d.Branches, Branch{Concrete: c})
				break
			}
		}
	}

	if roots := derive.Roots(candidates); common.IsSingle(roots) {
		d.Fallback = roots[0]
	}

	if common.IsEmpty(d.Branches) && d.Fallback == nil {
		reason := fmt.Sprintf("no concrete type of %s for %s", iface, key.Source)
		p.add(&NoOp{Code: diagnostic.CodeNoDerivedType, Reason: reason})
		p.Diagnostics.AddWarning(diagnostic.CodeNoDerivedType, reason, key.String(), "")
	}

	p.add(d)
	p.add(&Return{})

	for _, br := range d.Branches {
		p.need(key.Nested(key.Source, br.Concrete, key.Position))
	}

	if d.Fallback != nil {
		p.need(key.Nested(key.Source, d.Fallback, key.Position))
	}

	return nil
}

func derivedCondition(r mapping.DerivedRule, keyed bool, settings match.Settings) datasource.Condition {
	switch {
	case r.Predicate != nil:
		return &datasource.Predicate{Func: r.Predicate, Desc: "predicate for " + typeString(r.Concrete)}
	case keyed:
		return &datasource.HasKeyPrefix{Settings: settings, Names: []string{r.IfKey}}
	default:
		return &datasource.HasMember{Name: r.IfKey}
	}
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	return t.String()
}
