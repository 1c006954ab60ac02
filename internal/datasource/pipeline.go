package datasource

import (
	"reflect"
	"slices"
	"strings"

	"graph-mapper/internal/caster"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

// maxFlattenDepth bounds the search for flattened source members such as
// CustomerAddressLine1.
const maxFlattenDepth = 4

// Pipeline resolves data sources for target members.
type Pipeline struct {
	config  *mapping.Config
	conv    *primitive.Converter
	casters *caster.Registry
	members member.Enumerator
	finder  NestedAccessFinder
}

// NewPipeline creates a pipeline over the given configuration and capabilities.
func NewPipeline(cfg *mapping.Config, conv *primitive.Converter, casters *caster.Registry, members member.Enumerator) *Pipeline {
	return &Pipeline{config: cfg, conv: conv, casters: casters, members: members}
}

// Request is one target member of a plan.
type Request struct {
	RuleSet  mapping.RuleSet
	Source   reflect.Type
	Target   reflect.Type
	Member   member.Member
	Position Position
}

// Query returns the configuration query of the plan.
func (r Request) Query() mapping.Query {
	return mapping.Query{
		Scope:   mapping.ScopeOf(member.Classify(r.Source)),
		Source:  r.Source,
		Target:  r.Target,
		RuleSet: r.RuleSet,
	}
}

// RootQuery returns the configuration query of the plan rooted rules are
// declared for, and the member path below that root.
func (r Request) RootQuery() (mapping.Query, string, bool) {
	if r.Position.Root == nil {
		return mapping.Query{}, "", false
	}

	q := mapping.Query{
		Scope:   mapping.ScopeOf(member.Classify(r.Position.SourceRoot)),
		Source:  r.Position.SourceRoot,
		Target:  r.Position.Root,
		RuleSet: r.RuleSet,
	}

	return q, joinPath(r.Position.Path, r.Member.Name()), true
}

// Keyed reports whether the plan source is read by key.
func (r Request) Keyed() bool {
	return member.Classify(r.Source).IsKeyed()
}

// Resolve returns the data source of the requested member.
func (p *Pipeline) Resolve(req Request) DataSource {
	if ds, ok := p.configured(req); ok {
		return ds
	}

	if req.Keyed() && !isNested(req.Member.Type()) {
		if ds, ok := p.keyed(req); ok {
			return ds
		}
	}

	if isNested(req.Member.Type()) {
		if ds, ok := p.nested(req); ok {
			return ds
		}
	} else if !req.Keyed() {
		if ds, ok := p.member(req); ok {
			return ds
		}
	}

	return p.fallback(req)
}

func (p *Pipeline) configured(req Request) (DataSource, bool) {
	if q, path, ok := req.RootQuery(); ok {
		if rule, found := p.config.DataSourceFor(q, path); found {
			return p.fromRule(req, rule, true)
		}
	}

	rule, found := p.config.DataSourceFor(req.Query(), req.Member.Name())
	if !found {
		return DataSource{}, false
	}

	return p.fromRule(req, rule, false)
}

func (p *Pipeline) fromRule(req Request, rule mapping.DataSourceRule, rooted bool) (DataSource, bool) {
	var value Expr

	switch {
	case rule.Value != nil:
		value = &Custom{Func: rule.Value, Desc: rule.TargetPath}
	default:
		from, srcType := Expr(&Source{T: req.Source}), req.Source
		if rooted && req.Position.Path != "" {
			from = &Ancestor{Suffix: req.Position.Path, T: req.Position.SourceRoot}
			srcType = req.Position.SourceRoot
		}

		if member.Classify(srcType).IsKeyed() {
			scope := mapping.ScopeOf(member.Classify(srcType))
			value = &Lookup{
				Settings:  p.config.Naming(scope, req.Target),
				Full:      []string{rule.SourcePath},
				ValueType: keyedValueType(srcType),
			}

			break
		}

		access, ok := p.walk(from, srcType, rule.SourcePath)
		if !ok {
			return None("configured source path " + rule.SourcePath + " not found on " + srcType.String()), true
		}

		value = access
	}

	adapted, ok := p.Adapt(value, req, req.Member.Type())
	if !ok {
		return None("configured source " + value.String() + " cannot populate " + req.Member.Type().String()), true
	}

	nested := p.finder.FindIn(adapted)

	return DataSource{
		Value:     adapted,
		Condition: Guard(nested),
		Nested:    nested,
		Found:     true,
		Origin:    OriginConfigured,
	}, true
}

func (p *Pipeline) keyed(req Request) (DataSource, bool) {
	settings, full, names := p.keySpace(req)

	lookup := &Lookup{
		Settings:  settings,
		Full:      full,
		Names:     names,
		ValueType: keyedValueType(req.Source),
	}

	value, ok := p.Adapt(lookup, req, req.Member.Type())
	if !ok {
		return DataSource{}, false
	}

	return DataSource{Value: value, Found: true, Origin: OriginKeyed}, true
}

func (p *Pipeline) nested(req Request) (DataSource, bool) {
	target := req.Member.Type()
	existing := req.RuleSet != mapping.CreateNew

	if req.Keyed() {
		settings, full, names := p.keySpace(req)
		deep := p.deepFullKeys(req)
		keyed := &Keyed{Settings: settings, Full: full, Names: names, Deep: deep}

		return DataSource{
			Value: &MapCall{
				From:     &Source{T: req.Source},
				Target:   target,
				Member:   req.Member,
				Position: p.ChildPosition(req, ""),
				Keyed:    keyed,
				Existing: existing,
			},
			Condition: &HasKeyPrefix{Settings: settings, Full: append(slices.Clip(full), deep...), Names: names},
			Found:     true,
			Origin:    OriginNested,
		}, true
	}

	if from, ok := p.findSource(req); ok {
		if value, adapted := p.Adapt(from, req, target); adapted {
			nested := p.finder.FindIn(value)

			return DataSource{
				Value:     value,
				Condition: Guard(nested),
				Nested:    nested,
				Found:     true,
				Origin:    OriginNested,
			}, true
		}
	}

	if member.Classify(target) != member.CategoryComplex {
		return DataSource{}, false
	}

	prefix := req.Position.Unflatten + req.Member.Name()
	if !p.hasMemberWithPrefix(req.Source, prefix) {
		if !p.hasRulesBelow(req) {
			return DataSource{}, false
		}

		prefix = ""
	}

	return DataSource{
		Value: &MapCall{
			From:     &Source{T: req.Source},
			Target:   target,
			Member:   req.Member,
			Position: p.ChildPosition(req, prefix),
			Existing: existing,
		},
		Found:  true,
		Origin: OriginNested,
	}, true
}

func (p *Pipeline) member(req Request) (DataSource, bool) {
	from, ok := p.findSource(req)
	if !ok {
		return DataSource{}, false
	}

	value, ok := p.Adapt(from, req, req.Member.Type())
	if !ok {
		return DataSource{}, false
	}

	nested := p.finder.FindIn(value)

	return DataSource{
		Value:     value,
		Condition: Guard(nested),
		Nested:    nested,
		Found:     true,
		Origin:    OriginMember,
	}, true
}

func (p *Pipeline) fallback(req Request) DataSource {
	ds := DataSource{Origin: OriginFallback, Reason: "no source member matches " + req.Member.Name()}

	switch req.RuleSet {
	case mapping.Merge:
		ds.Value = &Existing{Member: req.Member}
	default:
		ds.Value = &Zero{T: req.Member.Type()}
	}

	return ds
}

// keySpace returns the naming settings, whole keys and member names used to
// find a member in a keyed source.
func (p *Pipeline) keySpace(req Request) (match.Settings, []string, []string) {
	scope := mapping.ScopeOf(member.Classify(req.Source))
	object := req.Target

	var full, names []string

	rootQuery, rootPath, rooted := req.RootQuery()
	if rooted {
		object = rootQuery.Target

		if key, ok := p.config.FullKey(scope, object, req.RuleSet, rootPath); ok {
			full = append(full, key)
		}

		if key, ok := p.config.MemberKey(scope, object, req.RuleSet, rootPath); ok {
			names = append(names, key)
		}
	}

	settings := p.config.Naming(scope, object)

	if key, ok := p.config.FullKey(scope, req.Target, req.RuleSet, req.Member.Name()); ok {
		full = append(full, key)
	}

	if key, ok := p.config.MemberKey(scope, req.Target, req.RuleSet, req.Member.Name()); ok {
		names = append(names, key)
	}

	for _, v := range settings.NameVariants(req.Member) {
		if !containsFold(names, v) {
			names = append(names, v)
		}
	}

	return settings, full, names
}

// deepFullKeys returns the full keys configured for members beneath the
// requested one, from the root mapping and from this plan's own mapping.
func (p *Pipeline) deepFullKeys(req Request) []string {
	scope := mapping.ScopeOf(member.Classify(req.Source))
	keys := p.config.FullKeysBelow(scope, req.Target, req.RuleSet, req.Member.Name())

	if q, path, ok := req.RootQuery(); ok {
		keys = append(keys, p.config.FullKeysBelow(scope, q.Target, req.RuleSet, path)...)
	}

	return keys
}

// ChildPosition returns the position of the nested plan for the member.
// Plans only carry a position when configuration reaches beneath the member
// or when names are unflattened; otherwise they are shared by every parent.
func (p *Pipeline) ChildPosition(req Request, unflatten string) Position {
	var pos Position

	switch {
	case req.Position.Root != nil:
		if q, path, _ := req.RootQuery(); p.config.HasRulesBelow(q, path) {
			pos = req.Position.Child(req.Member.Name())
		} else if p.config.HasRulesBelow(req.Query(), req.Member.Name()) {
			pos = Position{Root: req.Target, SourceRoot: req.Source, Path: req.Member.Name()}
		}
	case p.config.HasRulesBelow(req.Query(), req.Member.Name()):
		pos = Position{Root: req.Target, SourceRoot: req.Source, Path: req.Member.Name()}
	}

	pos.Unflatten = unflatten

	return pos
}

func (p *Pipeline) hasRulesBelow(req Request) bool {
	if q, path, ok := req.RootQuery(); ok && p.config.HasRulesBelow(q, path) {
		return true
	}

	return p.config.HasRulesBelow(req.Query(), req.Member.Name())
}

// findSource finds the source member populating the target member: by name
// variant first (prefixed when unflattening), then by flattening.
func (p *Pipeline) findSource(req Request) (Expr, bool) {
	from := &Source{T: req.Source}
	members := p.members.EnumerateMembers(req.Source)
	settings := match.Settings{Synonyms: p.synonyms(req.Member.Name())}
	variants := settings.NameVariants(req.Member)

	var candidates []string

	if prefix := req.Position.Unflatten; prefix != "" {
		for _, v := range variants {
			candidates = append(candidates, prefix+v)
		}
	}

	candidates = append(candidates, variants...)

	for _, name := range candidates {
		if m, ok := member.FindMember(members, name); ok {
			return &Access{From: from, Member: m}, true
		}
	}

	for _, name := range candidates {
		if access, ok := p.flattened(from, req.Source, name, 0); ok {
			return access, true
		}
	}

	return nil, false
}

// flattened finds name as a concatenation of nested member names, e.g.
// CustomerName as Customer.Name.
func (p *Pipeline) flattened(from Expr, t reflect.Type, name string, depth int) (Expr, bool) {
	if depth >= maxFlattenDepth {
		return nil, false
	}

	for _, m := range p.members.EnumerateMembers(t) {
		if member.Classify(m.Type()) != member.CategoryComplex || !hasPrefixFold(name, m.Name()) {
			continue
		}

		rest := name[len(m.Name()):]
		if rest == "" {
			continue
		}

		access := &Access{From: from, Member: m}

		if leaf, ok := member.FindMember(p.members.EnumerateMembers(m.Type()), rest); ok {
			return &Access{From: access, Member: leaf}, true
		}

		if deeper, ok := p.flattened(access, m.Type(), rest, depth+1); ok {
			return deeper, true
		}
	}

	return nil, false
}

// walk resolves a configured source path on a typed source.
func (p *Pipeline) walk(from Expr, t reflect.Type, path string) (Expr, bool) {
	parsed, err := mapping.ParsePath(path)
	if err != nil {
		return nil, false
	}

	cur := from

	for _, seg := range parsed.Segments {
		if seg.Element {
			return nil, false
		}

		m, ok := member.FindMember(p.members.EnumerateMembers(cur.Type()), seg.Name)
		if !ok {
			return nil, false
		}

		cur = &Access{From: cur, Member: m}
	}

	return cur, true
}

// Adapt makes value assignable to the target type: as is, converted, through
// a registered caster, or through a nested mapping.
func (p *Pipeline) Adapt(value Expr, req Request, to reflect.Type) (Expr, bool) {
	from := value.Type()

	if c, ok := p.casters.Find(from, to); ok {
		return &Convert{From: value, To: to, Caster: &c}, true
	}

	if !isNested(to) {
		switch {
		case from == to:
			return value, true
		case p.conv.CanConvert(from, to):
			return &Convert{From: value, To: to}, true
		default:
			return nil, false
		}
	}

	if member.Classify(from) == member.CategorySimple && from != anyType {
		return nil, false
	}

	return &MapCall{
		From:     value,
		Target:   to,
		Member:   req.Member,
		Position: p.ChildPosition(req, ""),
		Existing: req.RuleSet != mapping.CreateNew,
	}, true
}

func (p *Pipeline) hasMemberWithPrefix(t reflect.Type, prefix string) bool {
	for _, m := range p.members.EnumerateMembers(t) {
		if len(m.Name()) > len(prefix) && hasPrefixFold(m.Name(), prefix) {
			return true
		}
	}

	return false
}

func (p *Pipeline) synonyms(name string) map[string][]string {
	syn := p.config.Synonyms(name)
	if len(syn) == 0 {
		return nil
	}

	return map[string][]string{match.NormalizeIdent(name): syn}
}

// isNested reports whether values of t are produced by a nested plan.
func isNested(t reflect.Type) bool {
	return member.Classify(t) != member.CategorySimple
}

// keyedValueType is the static type of values read from a keyed source.
func keyedValueType(t reflect.Type) reflect.Type {
	if t = member.Deref(t); t.Kind() == reflect.Map {
		return t.Elem()
	}

	return anyType
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}

	return false
}
