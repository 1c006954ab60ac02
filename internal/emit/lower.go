package emit

import (
	"fmt"
	"reflect"
	"sync"

	"graph-mapper/internal/datasource"
	"graph-mapper/internal/match"
	"graph-mapper/internal/plan"
	"graph-mapper/primitive"
)

// Linker returns the executor of a nested plan.
type Linker interface {
	Link(key plan.Key) (Executor, error)
}

// evalFunc produces a value; the boolean is false when no value is available.
type evalFunc func(*Frame) (reflect.Value, bool, error)

type condFunc func(*Frame) (bool, error)

// opFunc runs one operation. A true result ends the plan.
type opFunc func(*Frame) (bool, error)

// links caches the nested executors of one plan by key.
type links struct {
	linker Linker
	execs  sync.Map // plan.Key -> Executor
}

func (ls *links) get(key plan.Key) (Executor, error) {
	if e, ok := ls.execs.Load(key); ok {
		return e.(Executor), nil
	}

	e, err := ls.linker.Link(key)
	if err != nil {
		return nil, err
	}

	ls.execs.Store(key, e)

	return e, nil
}

type lowering struct {
	key    plan.Key
	conv   *primitive.Converter
	links  *links
	inline *plan.Construct
}

// Lower turns a plan into its executor. Nested plans are linked through
// linker the first time they are reached.
func Lower(p *plan.Plan, linker Linker, conv *primitive.Converter) (Executor, error) {
	if conv == nil {
		conv = primitive.Default
	}

	l := &lowering{key: p.Key, conv: conv, links: &links{linker: linker}}
	ops := make([]opFunc, 0, len(p.Ops))

	for _, op := range p.Ops {
		fn, err := l.op(op)
		if err != nil {
			return nil, fmt.Errorf("lower %s: %w", op, err)
		}

		if fn != nil {
			ops = append(ops, fn)
		}
	}

	target := p.Key.Target

	return func(f *Frame) (reflect.Value, error) {
		for _, op := range ops {
			done, err := op(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if done {
				break
			}
		}

		out, err := coerce(f.target, target)
		if err != nil {
			return reflect.Value{}, wrap(f.DisplayPath(), err)
		}

		return out, nil
	}, nil
}

func (l *lowering) op(op plan.Op) (opFunc, error) {
	switch op := op.(type) {
	case *plan.Reuse:
		return l.reuse(op), nil
	case *plan.Callback:
		return l.callback(op), nil
	case *plan.Construct:
		return l.construct(op), nil
	case *plan.Register:
		return l.register(op), nil
	case *plan.Populate:
		return l.populate(op)
	case *plan.NoOp:
		return nil, nil
	case *plan.Dispatch:
		return l.dispatch(op)
	case *plan.Clone:
		return l.clone(op)
	case *plan.Entries:
		return l.entries(op)
	case *plan.SetEntry:
		return l.setEntry(op)
	case *plan.Loop:
		return l.loop(op)
	case *plan.Return:
		return l.ret(op)
	default:
		return nil, fmt.Errorf("unknown operation %T", op)
	}
}

func (l *lowering) expr(e datasource.Expr) (evalFunc, error) {
	switch e := e.(type) {
	case *datasource.Source:
		return func(f *Frame) (reflect.Value, bool, error) {
			return f.Source, f.Source.IsValid(), nil
		}, nil
	case *datasource.Ancestor:
		suffix := e.Suffix

		return func(f *Frame) (reflect.Value, bool, error) {
			a := f.ancestor(suffix)
			if a == nil {
				return reflect.Value{}, false, nil
			}

			return a.Source, a.Source.IsValid(), nil
		}, nil
	case *datasource.Element:
		return func(f *Frame) (reflect.Value, bool, error) {
			return f.element, f.hasElement, nil
		}, nil
	case *datasource.Access:
		return l.access(e)
	case *datasource.Lookup:
		return l.lookup(e), nil
	case *datasource.Convert:
		return l.convert(e)
	case *datasource.MapCall:
		return l.mapCall(e)
	case *datasource.Custom:
		fn := e.Func

		return func(f *Frame) (reflect.Value, bool, error) {
			out, err := fn(f.Context())
			if err != nil {
				return reflect.Value{}, false, err
			}

			if out == nil {
				return reflect.Zero(anyType), true, nil
			}

			return reflect.ValueOf(out), true, nil
		}, nil
	case *datasource.Zero:
		zero := reflect.Zero(e.T)

		return func(*Frame) (reflect.Value, bool, error) {
			return zero, true, nil
		}, nil
	case *datasource.Existing:
		m := e.Member

		return func(f *Frame) (reflect.Value, bool, error) {
			v, ok := m.Get(f.target)
			return v, ok, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown expression %T", e)
	}
}

func (l *lowering) access(e *datasource.Access) (evalFunc, error) {
	from, err := l.expr(e.From)
	if err != nil {
		return nil, err
	}

	m := e.Member

	return func(f *Frame) (reflect.Value, bool, error) {
		v, ok, err := from(f)
		if err != nil || !ok {
			return reflect.Value{}, false, err
		}

		v, ok = m.Get(v)

		return v, ok, nil
	}, nil
}

func (l *lowering) lookup(e *datasource.Lookup) evalFunc {
	settings, full, names := e.Settings, e.Full, e.Names

	return func(f *Frame) (reflect.Value, bool, error) {
		candidates := append(append([]string(nil), full...), settings.ChildPrefixes(f.Prefixes, names)...)

		key, ok := match.FindKey(f.sourceKeys(), candidates)
		if !ok {
			return reflect.Value{}, false, nil
		}

		v, ok := keyedGet(f.Source, key)

		return v, ok, nil
	}
}

func (l *lowering) convert(e *datasource.Convert) (evalFunc, error) {
	from, err := l.expr(e.From)
	if err != nil {
		return nil, err
	}

	to, conv, cast := e.To, l.conv, e.Caster

	return func(f *Frame) (reflect.Value, bool, error) {
		v, ok, err := from(f)
		if err != nil || !ok {
			return reflect.Value{}, false, err
		}

		if cast != nil {
			out, err := cast.Call(unwrap(v))
			return out, err == nil, err
		}

		out, err := conv.Convert(v, to)

		return out, err == nil, err
	}, nil
}

func (l *lowering) cond(c datasource.Condition) (condFunc, error) {
	switch c := c.(type) {
	case nil:
		return nil, nil
	case *datasource.NotNil:
		value, err := l.expr(c.Expr)
		if err != nil {
			return nil, err
		}

		return func(f *Frame) (bool, error) {
			v, ok, err := value(f)
			return ok && !isNil(unwrap(v)), err
		}, nil
	case *datasource.HasKeyPrefix:
		settings, full, names := c.Settings, c.Full, c.Names

		return func(f *Frame) (bool, error) {
			keys := f.sourceKeys()
			if _, ok := match.FindKey(keys, full); ok {
				return true, nil
			}

			return match.HasKeyWithPrefix(keys, settings.ChildPrefixes(f.Prefixes, names)), nil
		}, nil
	case *datasource.HasMember:
		name := c.Name

		return func(f *Frame) (bool, error) {
			return hasMember(f.Source, name), nil
		}, nil
	case *datasource.Predicate:
		fn := c.Func

		return func(f *Frame) (bool, error) {
			return fn(f.Context()), nil
		}, nil
	case *datasource.TargetIsZero:
		m := c.Member

		return func(f *Frame) (bool, error) {
			v, ok := m.Get(f.target)
			return !ok || v.IsZero(), nil
		}, nil
	case datasource.All:
		all := make([]condFunc, 0, len(c))

		for _, sub := range c {
			fn, err := l.cond(sub)
			if err != nil {
				return nil, err
			}

			if fn != nil {
				all = append(all, fn)
			}
		}

		return func(f *Frame) (bool, error) {
			for _, fn := range all {
				if ok, err := fn(f); err != nil || !ok {
					return false, err
				}
			}

			return true, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown condition %T", c)
	}
}

// hasMember reports whether the struct held by v has a non-zero field name.
func hasMember(v reflect.Value, name string) bool {
	for v = unwrap(v); v.IsValid() && v.Kind() == reflect.Pointer; v = unwrap(v.Elem()) {
		if v.IsNil() {
			return false
		}
	}

	if !v.IsValid() || v.Kind() != reflect.Struct {
		return false
	}

	sf, ok := v.Type().FieldByName(name)
	if !ok {
		return false
	}

	field, err := v.FieldByIndexErr(sf.Index)

	return err == nil && !field.IsZero()
}
