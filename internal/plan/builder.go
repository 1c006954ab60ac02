package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/derive"
	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

// ErrUnsupportedShape is returned for plans no variant can build.
var ErrUnsupportedShape = errors.New("unsupported mapping shape")

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// maxSuggestions bounds the "did you mean" list of unmatched members.
const maxSuggestions = 3

// Builder assembles plans. It is safe for concurrent use.
type Builder struct {
	config   *mapping.Config
	pipeline *datasource.Pipeline
	members  member.Enumerator
	derived  *derive.Resolver
	conv     *primitive.Converter
	logger   *slog.Logger

	recursive sync.Map // reflect.Type -> bool
}

// NewBuilder creates a builder.
func NewBuilder(
	cfg *mapping.Config,
	pipeline *datasource.Pipeline,
	members member.Enumerator,
	derived *derive.Resolver,
	conv *primitive.Converter,
	logger *slog.Logger,
) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Builder{
		config:   cfg,
		pipeline: pipeline,
		members:  members,
		derived:  derived,
		conv:     conv,
		logger:   logger,
	}
}

// Build assembles the plan for key.
func (b *Builder) Build(key Key) (*Plan, error) {
	if key.Source == nil || key.Target == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, key)
	}

	p := &Plan{Key: key, Category: member.Classify(key.Target)}

	var err error

	switch p.Category {
	case member.CategoryComplex:
		if member.Deref(key.Target).Kind() == reflect.Interface {
			err = b.buildDispatch(p)
		} else {
			err = b.buildComplex(p)
		}
	case member.CategoryDictionary, member.CategoryDynamic:
		err = b.buildDictionary(p)
	case member.CategoryEnumerable:
		err = b.buildEnumerable(p)
	default:
		b.buildSimple(p)
	}

	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", key, err)
	}

	b.logger.Debug("plan built",
		slog.String("key", key.String()),
		slog.Int("ops", len(p.Ops)),
		slog.Int("nested", len(p.Nested)),
		slog.Int("warnings", len(p.Diagnostics.Warnings)))

	return p, nil
}

func (b *Builder) buildComplex(p *Plan) error {
	key := p.Key
	q := key.Query(sourceScope(key.Source))

	for _, r := range b.config.DerivedRules(q) {
		if r.Target != nil && member.Deref(r.Target) == member.Deref(key.Target) {
			return fmt.Errorf("%w: %s is not an interface", mapping.ErrInvalidDerivedRule, key.Target)
		}
	}

	strategy, err := construct.Resolve(b.config, q)
	if err != nil {
		return err
	}

	before := b.config.Callbacks(q, mapping.Before)
	after := b.config.Callbacks(q, mapping.After)
	identify, register := b.registration(key)

	name := NewStem("t").Next()
	local := register || len(after) > 0 || key.RuleSet != mapping.CreateNew

	if register {
		p.add(&Reuse{Identify: identify})
	}

	if len(before) > 0 {
		p.add(&Callback{Phase: mapping.Before, Funcs: before})
	}

	p.add(&Construct{Strategy: strategy, Local: local, Name: name})

	if len(after) > 0 {
		p.add(&Callback{Phase: mapping.After, Funcs: after})
	}

	if register {
		p.add(&Register{Identify: identify, Name: name})
	}

	for _, m := range b.members.EnumerateMembers(key.Target) {
		b.populate(p, q, m)
	}

	p.add(&Return{Name: name})

	return nil
}

func (b *Builder) populate(p *Plan, q mapping.Query, m member.Member) {
	key := p.Key
	req := datasource.Request{
		RuleSet:  key.RuleSet,
		Source:   key.Source,
		Target:   key.Target,
		Member:   m,
		Position: key.Position,
	}

	if b.ignored(req, q) {
		p.add(&NoOp{Path: m.Name(), Code: diagnostic.CodeIgnoredMember, Reason: "ignored"})
		p.Diagnostics.AddInfo(diagnostic.CodeIgnoredMember, "member is ignored", key.String(), m.Name())

		return
	}

	if member.Classify(m.Type()) == member.CategoryDictionary && !member.HasStringKey(m.Type()) {
		reason := fmt.Sprintf("dictionaries keyed by %s cannot be populated", member.Deref(m.Type()).Key())
		p.add(&NoOp{Path: m.Name(), Code: diagnostic.CodeUnsupportedKey, Reason: reason})
		p.Diagnostics.AddInfo(diagnostic.CodeUnsupportedKey, reason, key.String(), m.Name())

		return
	}

	ds := b.pipeline.Resolve(req)
	pop := MemberPopulation{Member: m, Source: ds, Success: ds.Found}

	if !ds.Found {
		reason := ds.Reason
		if reason == "" {
			reason = "no data source"
		}

		p.Diagnostics.AddWarning(diagnostic.CodeUnmatchedMember, reason, key.String(), m.Name(), b.suggest(key.Source, m)...)

		if ds.IsNone() || key.RuleSet != mapping.Overwrite {
			p.add(&NoOp{Path: m.Name(), Code: diagnostic.CodeUnmatchedMember, Reason: reason})
			return
		}
	}

	if ds.Found && key.RuleSet == mapping.Merge && member.Classify(m.Type()) == member.CategorySimple {
		pop.Conditions = append(pop.Conditions, &datasource.TargetIsZero{Member: m})
	}

	p.add(&Populate{MemberPopulation: pop})
	b.collectNested(p, ds.Value)
}

func (b *Builder) ignored(req datasource.Request, q mapping.Query) bool {
	if rq, path, ok := req.RootQuery(); ok && b.config.IsIgnored(rq, path) {
		return true
	}

	return b.config.IsIgnored(q, req.Member.Name())
}

func (b *Builder) suggest(source reflect.Type, m member.Member) []string {
	if member.Classify(source) != member.CategoryComplex {
		return nil
	}

	return match.Suggest(b.conv, m, b.members.EnumerateMembers(source), maxSuggestions)
}

// registration decides whether targets of key are registered in the call
// registry: reference targets whose source has an identity and may be
// reached again, because its type is recursive or it has a configured
// identifier.
func (b *Builder) registration(key Key) (mapping.IdentifierFunc, bool) {
	if key.Target.Kind() != reflect.Pointer {
		return nil, false
	}

	if identify, ok := b.config.Identifier(key.Source); ok {
		return identify, true
	}

	switch key.Source.Kind() {
	case reflect.Pointer, reflect.Map:
		return nil, b.isRecursive(key.Source)
	default:
		return nil, false
	}
}

// isRecursive reports whether values of t can (transitively) hold values of
// t. Interface-typed members can hold anything and count as recursive.
func (b *Builder) isRecursive(t reflect.Type) bool {
	if v, ok := b.recursive.Load(t); ok {
		return v.(bool)
	}

	r := b.reaches(member.Deref(t), member.Deref(t), map[reflect.Type]bool{})
	b.recursive.Store(t, r)

	return r
}

func (b *Builder) reaches(from, to reflect.Type, seen map[reflect.Type]bool) bool {
	for _, child := range b.children(from) {
		child = member.Deref(child)

		if child == to || child.Kind() == reflect.Interface {
			return true
		}

		if seen[child] {
			continue
		}

		seen[child] = true

		if b.reaches(child, to, seen) {
			return true
		}
	}

	return false
}

func (b *Builder) children(t reflect.Type) []reflect.Type {
	switch t.Kind() {
	case reflect.Struct:
		var types []reflect.Type
		for _, m := range b.members.EnumerateMembers(t) {
			if member.Classify(m.Type()) != member.CategorySimple {
				types = append(types, m.Type())
			}
		}

		return types
	case reflect.Slice, reflect.Array, reflect.Map:
		if member.Classify(t.Elem()) == member.CategorySimple {
			return nil
		}

		return []reflect.Type{t.Elem()}
	default:
		return nil
	}
}

// collectNested records the nested plans an expression needs whose source
// type is known statically.
func (b *Builder) collectNested(p *Plan, e datasource.Expr) {
	switch e := e.(type) {
	case *datasource.MapCall:
		source := e.From.Type()
		if e.Keyed != nil {
			source = p.Key.Source
		}

		if source.Kind() != reflect.Interface {
			p.need(p.Key.Nested(source, e.Target, e.Position))
		}

		b.collectNested(p, e.From)
	case *datasource.Convert:
		b.collectNested(p, e.From)
	}
}

func (b *Builder) buildSimple(p *Plan) {
	key := p.Key

	value, ok := b.pipeline.Adapt(&datasource.Source{T: key.Source}, datasource.Request{RuleSet: key.RuleSet}, key.Target)
	if !ok {
		b.unsupported(p, fmt.Sprintf("%s does not convert to %s", key.Source, key.Target))
		return
	}

	p.add(&Return{Value: value})
}

// unsupported ends a plan with a no-op: the result is the existing target
// or the zero value.
func (b *Builder) unsupported(p *Plan, reason string) {
	p.add(&NoOp{Code: diagnostic.CodeUnsupportedShape, Reason: reason})
	p.add(&Return{})
	p.Diagnostics.AddInfo(diagnostic.CodeUnsupportedShape, reason, p.Key.String(), "")
}

func sourceScope(t reflect.Type) mapping.Scope {
	return mapping.ScopeOf(member.Classify(t))
}

// keyedValueType is the static type of values read from a keyed source.
func keyedValueType(t reflect.Type) reflect.Type {
	if t = member.Deref(t); t.Kind() == reflect.Map {
		return t.Elem()
	}

	return anyType
}

func isNested(t reflect.Type) bool {
	return member.Classify(t) != member.CategorySimple
}

func declaresAny(members []member.Member, names []string) bool {
	return slices.ContainsFunc(names, func(name string) bool {
		_, ok := member.FindMember(members, name)
		return ok
	})
}
