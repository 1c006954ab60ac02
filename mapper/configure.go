package mapper

import (
	"reflect"

	"graph-mapper/internal/mapping"
)

// Rules declares rules for mappings between a source and a target type.
// Builder methods record the first error; Err reports it.
type Rules struct {
	config *mapping.Config
	sel    mapping.Selector
	err    error
}

// WhenMapping starts rules for mappings from source onto target. A nil type
// matches any type; interface and embedded types match covariantly.
func (m *Mapper) WhenMapping(source, target reflect.Type) *Rules {
	return &Rules{config: m.config, sel: mapping.Selector{Source: source, Target: target}}
}

// When starts rules for mappings from S onto T.
func When[S, T any](m *Mapper) *Rules {
	return m.WhenMapping(reflect.TypeFor[S](), reflect.TypeFor[T]())
}

// FromDictionaries restricts the rules to map sources.
func (r *Rules) FromDictionaries() *Rules {
	r.sel.Scope = mapping.ScopeDictionaries
	return r
}

// FromDynamics restricts the rules to Dynamic sources.
func (r *Rules) FromDynamics() *Rules {
	r.sel.Scope = mapping.ScopeDynamics
	return r
}

// For restricts the rules that follow to the given rule sets.
func (r *Rules) For(rs ...RuleSet) *Rules {
	r.sel.RuleSets = append([]RuleSet(nil), rs...)
	return r
}

// Map populates the target member path from the source member path (or key,
// for keyed sources).
func (r *Rules) Map(sourcePath, targetPath string) *Rules {
	return r.record(r.config.AddDataSource(mapping.DataSourceRule{
		Selector:   r.sel,
		TargetPath: targetPath,
		SourcePath: sourcePath,
	}))
}

// MapFunc populates the target member path with the result of fn.
func (r *Rules) MapFunc(targetPath string, fn func(Context) (any, error)) *Rules {
	return r.record(r.config.AddDataSource(mapping.DataSourceRule{
		Selector:   r.sel,
		TargetPath: targetPath,
		Value:      fn,
	}))
}

// Ignore leaves target member paths unpopulated.
func (r *Rules) Ignore(targetPaths ...string) *Rules {
	for _, p := range targetPaths {
		r.record(r.config.AddIgnore(mapping.IgnoreRule{Selector: r.sel, TargetPath: p}))
	}

	return r
}

// CreateUsing creates targets with fn instead of allocating them.
func (r *Rules) CreateUsing(fn func(Context) (any, error)) *Rules {
	return r.record(r.config.AddFactory(mapping.FactoryRule{Selector: r.sel, Factory: fn}))
}

// Before runs fn before a target is created.
func (r *Rules) Before(fn func(Context) error) *Rules {
	return r.record(r.config.AddCallback(mapping.CallbackRule{Selector: r.sel, Phase: mapping.Before, Func: fn}))
}

// After runs fn once a target is created, before its members are populated.
func (r *Rules) After(fn func(Context) error) *Rules {
	return r.record(r.config.AddCallback(mapping.CallbackRule{Selector: r.sel, Phase: mapping.After, Func: fn}))
}

// MapToDerivedIfKey maps onto concrete when the source exposes key: a key
// (or key prefix) of a keyed source, or a non-zero member of a typed one.
func (r *Rules) MapToDerivedIfKey(key string, concrete reflect.Type) *Rules {
	return r.record(r.config.AddDerived(mapping.DerivedRule{Selector: r.sel, Concrete: concrete, IfKey: key}))
}

// MapToDerivedWhen maps onto concrete when pred holds for the source.
func (r *Rules) MapToDerivedWhen(pred func(Context) bool, concrete reflect.Type) *Rules {
	return r.record(r.config.AddDerived(mapping.DerivedRule{Selector: r.sel, Concrete: concrete, Predicate: pred}))
}

// Err returns the first error met while declaring the rules.
func (r *Rules) Err() error {
	return r.err
}

func (r *Rules) record(err error) *Rules {
	if r.err == nil {
		r.err = err
	}

	return r
}

// Keys declares how keys are composed for one keyed scope.
type Keys struct {
	config *mapping.Config
	scope  mapping.Scope
	object reflect.Type
	rs     []RuleSet
	err    error
}

// Dictionaries starts key rules for map sources and targets.
func (m *Mapper) Dictionaries() *Keys {
	return &Keys{config: m.config, scope: mapping.ScopeDictionaries}
}

// Dynamics starts key rules for Dynamic sources and targets.
func (m *Mapper) Dynamics() *Keys {
	return &Keys{config: m.config, scope: mapping.ScopeDynamics}
}

// For restricts the rules that follow to mappings whose typed side is object.
func (k *Keys) For(object reflect.Type, rs ...RuleSet) *Keys {
	k.object, k.rs = object, append([]RuleSet(nil), rs...)
	return k
}

// UseSeparator joins nested member names with sep.
func (k *Keys) UseSeparator(sep string) *Keys {
	return k.record(k.config.AddNaming(mapping.NamingRule{Scope: k.scope, Object: k.object, Separator: sep}))
}

// UseElementPattern addresses elements with pattern, in which "i" stands
// for the index: "[i]", "_i_".
func (k *Keys) UseElementPattern(pattern string) *Keys {
	return k.record(k.config.AddNaming(mapping.NamingRule{Scope: k.scope, Object: k.object, ElementPattern: pattern}))
}

// MapMemberName uses key for the member's own name; parents keep theirs.
func (k *Keys) MapMemberName(path, key string) *Keys {
	return k.record(k.config.AddKey(mapping.KeyRule{Scope: k.scope, Object: k.object, RuleSets: k.rs, Path: path, Key: key}))
}

// MapFullKey uses key as the whole key of the member.
func (k *Keys) MapFullKey(path, key string) *Keys {
	return k.record(k.config.AddKey(mapping.KeyRule{Scope: k.scope, Object: k.object, RuleSets: k.rs, Path: path, Key: key, Full: true}))
}

// Err returns the first error met while declaring the rules.
func (k *Keys) Err() error {
	return k.err
}

func (k *Keys) record(err error) *Keys {
	if k.err == nil {
		k.err = err
	}

	return k
}

// AddSynonyms makes members named name also match the alternative names.
func (m *Mapper) AddSynonyms(name string, alternatives ...string) {
	m.config.AddSynonyms(name, alternatives...)
}

// IdentifyUsing identifies source objects of type source by fn's result, so
// equal identities map to one target per call.
func (m *Mapper) IdentifyUsing(source reflect.Type, fn func(any) any) error {
	return m.config.AddIdentifier(mapping.IdentifierRule{Source: source, Func: fn})
}
