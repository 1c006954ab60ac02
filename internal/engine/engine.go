// Package engine ties plan building, lowering and caching together: it owns
// the plan cache and links nested plans to their executors.
package engine

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"graph-mapper/internal/cache"
	"graph-mapper/internal/caster"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/derive"
	"graph-mapper/internal/emit"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/member"
	"graph-mapper/internal/plan"
	"graph-mapper/primitive"
)

// Compiled is a built plan with its executor.
type Compiled struct {
	Plan *plan.Plan
	exec emit.Executor

	// warmed is set once every nested plan the plan statically needs built.
	warmed atomic.Bool
}

// Map runs the plan. existing is the target mapped onto, nil for a new one;
// index is the element index passed to configured functions, if any.
func (c *Compiled) Map(source, existing any, index *int) (any, error) {
	frame := emit.NewFrame(emit.NewCall(), reflect.ValueOf(source), reflect.ValueOf(existing))
	if index != nil {
		frame.Index, frame.HasIndex = *index, true
	}

	out, err := c.exec(frame)
	if err != nil {
		return nil, err
	}

	if !out.IsValid() || !out.CanInterface() {
		return nil, nil
	}

	return out.Interface(), nil
}

// Options configure an engine. Nil fields get defaults.
type Options struct {
	Config    *mapping.Config
	Catalog   *derive.Catalog
	Converter *primitive.Converter
	Casters   *caster.Registry
	Logger    *slog.Logger
}

// Engine builds, caches and links plans. It is safe for concurrent use.
type Engine struct {
	config  *mapping.Config
	catalog *derive.Catalog
	conv    *primitive.Converter
	builder *plan.Builder
	plans   *cache.Cache[plan.Key, *Compiled]
	logger  *slog.Logger

	revision atomic.Uint64
}

// New creates an engine.
func New(opts Options) *Engine {
	if opts.Config == nil {
		opts.Config = mapping.NewConfig()
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Catalog == nil {
		opts.Catalog = derive.NewCatalog(opts.Logger)
	}

	if opts.Converter == nil {
		opts.Converter = primitive.Default
	}

	if opts.Casters == nil {
		opts.Casters = caster.NewRegistry()
	}

	members := member.NewIntrospector()
	pipeline := datasource.NewPipeline(opts.Config, opts.Converter, opts.Casters, members)
	derived := derive.NewResolver(opts.Catalog, members)

	return &Engine{
		config:  opts.Config,
		catalog: opts.Catalog,
		conv:    opts.Converter,
		builder: plan.NewBuilder(opts.Config, pipeline, members, derived, opts.Converter, opts.Logger),
		plans:   cache.New[plan.Key, *Compiled](),
		logger:  opts.Logger,
	}
}

// Key returns the plan key of a root mapping under the current configuration
// and catalog.
func (e *Engine) Key(source, target reflect.Type, rs mapping.RuleSet) plan.Key {
	return plan.Key{Source: source, Target: target, RuleSet: rs, Revision: e.currentRevision()}
}

// currentRevision combines the configuration and catalog revisions. Plans
// of older revisions can no longer be requested and are dropped.
func (e *Engine) currentRevision() uint64 {
	rev := e.config.Revision()<<32 | e.catalog.Revision()&0xffffffff

	if old := e.revision.Swap(rev); old != rev && e.plans.Len() > 0 {
		e.logger.Debug("mapping revision changed, purging plans",
			slog.Uint64("from", old), slog.Uint64("to", rev))
		e.plans.Purge()
	}

	return rev
}

// GetOrBuild returns the compiled plan of key, building it on first use.
// The nested plans it statically needs are built before it is returned, so
// their errors reach the caller before anything is mapped. A plan whose
// nested plans fail is evicted and fails every call until it builds.
func (e *Engine) GetOrBuild(key plan.Key) (*Compiled, error) {
	c, _, err := e.get(key)
	if err != nil {
		return nil, err
	}

	if c.warmed.Load() {
		return c, nil
	}

	if err := e.warm(key, c); err != nil {
		e.plans.Delete(key)
		e.logger.Debug("plan evicted after nested build failure",
			slog.String("key", key.String()), slog.Any("error", err))

		return nil, fmt.Errorf("%s: %w", key, err)
	}

	c.warmed.Store(true)

	return c, nil
}

// warm builds the nested plans reachable from c.
func (e *Engine) warm(key plan.Key, c *Compiled) error {
	var d Dealer

	d.Done(key)
	d.Needs(c.Plan.Nested...)

	for next, ok := d.NextNeeds(); ok; next, ok = d.NextNeeds() {
		nested, _, err := e.get(next)
		if err != nil {
			return err
		}

		if !nested.warmed.Load() {
			d.Needs(nested.Plan.Nested...)
		}
	}

	return nil
}

func (e *Engine) get(key plan.Key) (*Compiled, bool, error) {
	c, hit, err := e.plans.GetOrBuild(key, func() (*Compiled, error) { return e.compile(key) })
	if hit {
		e.logger.Debug("plan cache hit", slog.String("key", key.String()))
	}

	return c, hit, err
}

func (e *Engine) compile(key plan.Key) (*Compiled, error) {
	p, err := e.builder.Build(key)
	if err != nil {
		return nil, err
	}

	if err := p.Diagnostics.Error(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", key, err)
	}

	exec, err := emit.Lower(p, e, e.conv)
	if err != nil {
		return nil, err
	}

	return &Compiled{Plan: p, exec: exec}, nil
}

// Link implements emit.Linker.
func (e *Engine) Link(key plan.Key) (emit.Executor, error) {
	c, _, err := e.get(key)
	if err != nil {
		return nil, err
	}

	return c.exec, nil
}

// Plans returns the number of cached plans.
func (e *Engine) Plans() int {
	return e.plans.Len()
}
