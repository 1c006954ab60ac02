// Package mapper maps object graphs onto other shapes: structs onto structs,
// dictionaries and dynamic objects onto structs and back, collections onto
// collections. Mapping plans are built once per source type, target type
// and rule set, then reused.
//
//	m, err := mapper.New(mapper.WithTypes(Circle{}, Square{}))
//	dto, err := mapper.Map[OrderDTO](m, order)
//	_, err = mapper.MapOnTo(m, patch, &existing)
package mapper

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"graph-mapper/internal/caster"
	"graph-mapper/internal/construct"
	"graph-mapper/internal/derive"
	"graph-mapper/internal/diagnostic"
	"graph-mapper/internal/engine"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
	"graph-mapper/primitive"
)

// Re-exported names of the mapping model.
type (
	// RuleSet is the intent of a mapping call.
	RuleSet = mapping.RuleSet
	// Context is what configured functions see of the mapping in progress.
	Context = mapping.Context
	// Dynamic is a key/value object whose keys are only known at runtime.
	Dynamic = member.Dynamic
	// Expando is the insertion-ordered Dynamic the mapper creates.
	Expando = member.Expando
)

// Rule sets.
const (
	CreateNew = mapping.CreateNew
	Merge     = mapping.Merge
	Overwrite = mapping.Overwrite
)

// Errors returned while building plans.
var (
	// ErrInvalidDerivedRule reports derived-type rules that cannot apply,
	// such as rules on a target that is not an interface.
	ErrInvalidDerivedRule = mapping.ErrInvalidDerivedRule
	// ErrAmbiguousConstruction reports targets two factories are equally
	// specific for.
	ErrAmbiguousConstruction = construct.ErrAmbiguousConstruction
	// ErrInvalidElementPattern reports element patterns without exactly
	// one "i" placeholder.
	ErrInvalidElementPattern = match.ErrInvalidElementPattern
)

// Mapper maps values. It is safe for concurrent use; configuring it while
// mappings run is allowed, and later calls see the new rules.
type Mapper struct {
	config  *mapping.Config
	catalog *derive.Catalog
	casters *caster.Registry
	conv    *primitive.Converter
	loader  *mapping.Loader
	logger  *slog.Logger
	engine  *engine.Engine

	types []any
}

// Option configures a Mapper.
type Option func(*Mapper) error

// WithLogger sets the logger of plan builds and catalog loads.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) error {
		m.logger = logger
		return nil
	}
}

// WithTypes registers types derived-type discovery may choose from. Values
// and reflect.Type values are both accepted.
func WithTypes(types ...any) Option {
	return func(m *Mapper) error {
		m.types = append(m.types, types...)
		return nil
	}
}

// WithConverter replaces the value converter used for simple values.
func WithConverter(conv *primitive.Converter) Option {
	return func(m *Mapper) error {
		m.conv = conv
		return nil
	}
}

// WithCaster registers a conversion function such as func(A) B,
// func(A) (B, error) or func(A) (B, bool). Casters take precedence over the
// converter and over nested mapping.
func WithCaster(fn any) Option {
	return func(m *Mapper) error {
		_, err := m.casters.Add(fn)
		return err
	}
}

// New creates a mapper.
func New(opts ...Option) (*Mapper, error) {
	m := &Mapper{
		config:  mapping.NewConfig(),
		casters: caster.NewRegistry(),
		conv:    primitive.Default,
		loader:  mapping.NewLoader(),
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	m.catalog = derive.NewCatalog(m.logger)
	m.RegisterTypes(m.types...)
	m.types = nil

	m.engine = engine.New(engine.Options{
		Config:    m.config,
		Catalog:   m.catalog,
		Converter: m.conv,
		Casters:   m.casters,
		Logger:    m.logger,
	})

	return m, nil
}

// RegisterTypes adds types to the derived-type catalog.
func (m *Mapper) RegisterTypes(types ...any) {
	for _, t := range types {
		if rt, ok := t.(reflect.Type); ok {
			m.catalog.Register(rt)
		} else {
			m.catalog.Register(reflect.TypeOf(t))
		}
	}
}

// AddTypeLoader registers the types a loader produces, such as the
// registration function of a generated catalog. A loader that fails part
// way keeps what it loaded; the failure is reported by Diagnostics.
func (m *Mapper) AddTypeLoader(name string, load func() ([]reflect.Type, error)) int {
	return m.catalog.AddLoader(name, derive.LoaderFunc(load))
}

// Diagnostics returns the catalog diagnostics, such as partial loads.
func (m *Mapper) Diagnostics() diagnostic.Diagnostics {
	return m.catalog.Diagnostics()
}

// LoadConfig applies the YAML mapping document at url. Any URL scheme the
// afs service supports is accepted. Reloading an unchanged document is a
// no-op; a changed one replaces the rules it applied before.
func (m *Mapper) LoadConfig(ctx context.Context, url string) error {
	doc, changed, err := m.loader.Load(ctx, url)
	if err != nil {
		return err
	}

	if !changed {
		m.logger.Debug("mapping document unchanged", slog.String("url", url))
		return nil
	}

	if err := mapping.Apply(doc, m.config, m.catalog, url); err != nil {
		return fmt.Errorf("%s: %w", url, err)
	}

	m.logger.Info("mapping document applied", slog.String("url", url), slog.Int("mappings", len(doc.Mappings)))

	return nil
}

// Plan is a built mapping plan.
type Plan struct {
	compiled *engine.Compiled
}

// String renders the plan operations.
func (p *Plan) String() string {
	return p.compiled.Plan.String()
}

// Fingerprint identifies the plan operations.
func (p *Plan) Fingerprint() uint64 {
	return p.compiled.Plan.Fingerprint()
}

// Diagnostics returns what the builder noticed, such as unmatched members.
func (p *Plan) Diagnostics() diagnostic.Diagnostics {
	return p.compiled.Plan.Diagnostics
}

// Map runs the plan.
func (p *Plan) Map(source, existing any) (any, error) {
	return p.compiled.Map(source, existing, nil)
}

// GetOrBuild returns the plan mapping source onto target under rs, building
// it and the plans it needs on first use. Repeated requests return the same
// plan until the configuration or the type catalog changes.
func (m *Mapper) GetOrBuild(source, target reflect.Type, rs RuleSet) (*Plan, error) {
	c, err := m.engine.GetOrBuild(m.engine.Key(source, target, rs))
	if err != nil {
		return nil, err
	}

	return &Plan{compiled: c}, nil
}

func run[T any](m *Mapper, source any, existing any, rs RuleSet) (T, error) {
	var zero T

	if isNil(source) {
		if v, ok := existing.(T); ok {
			return v, nil
		}

		return zero, nil
	}

	p, err := m.GetOrBuild(reflect.TypeOf(source), reflect.TypeFor[T](), rs)
	if err != nil {
		return zero, err
	}

	out, err := p.Map(source, existing)
	if err != nil {
		return zero, err
	}

	v, _ := out.(T)

	return v, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// Map creates a new T from source.
func Map[T any](m *Mapper, source any) (T, error) {
	return run[T](m, source, nil, CreateNew)
}

// MapOnTo merges source into existing: only members still holding their
// zero value are populated, collections are appended to.
func MapOnTo[T any](m *Mapper, source any, existing T) (T, error) {
	return run[T](m, source, existing, Merge)
}

// MapOver overwrites existing with source: members the source cannot
// populate are reset, collections are replaced element by element.
func MapOver[T any](m *Mapper, source any, existing T) (T, error) {
	return run[T](m, source, existing, Overwrite)
}

// Flatten maps source into a dictionary of simple values keyed by member
// path, such as "Address.Line1" or "Items[0].Name".
func Flatten(m *Mapper, source any) (map[string]any, error) {
	return Map[map[string]any](m, source)
}

// NewExpando creates an empty dynamic object.
func NewExpando() *Expando {
	return member.NewExpando()
}
