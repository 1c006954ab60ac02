package emit

import (
	"reflect"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/member"
	"graph-mapper/internal/plan"
	"graph-mapper/internal/registry"
)

func (l *lowering) reuse(op *plan.Reuse) opFunc {
	identify, target := op.Identify, l.key.Target

	return func(f *Frame) (bool, error) {
		id, ok := registry.Identity(f.Source, identify)
		if !ok {
			return false, nil
		}

		if v, found := f.Call.Registry.Lookup(id, target); found {
			f.target = v
			return true, nil
		}

		return false, nil
	}
}

func (l *lowering) register(op *plan.Register) opFunc {
	identify, target := op.Identify, l.key.Target

	return func(f *Frame) (bool, error) {
		if id, ok := registry.Identity(f.Source, identify); ok && f.target.IsValid() {
			f.Call.Registry.Register(id, target, f.target)
		}

		return false, nil
	}
}

func (l *lowering) callback(op *plan.Callback) opFunc {
	funcs := op.Funcs

	return func(f *Frame) (bool, error) {
		ctx := f.Context()

		for _, fn := range funcs {
			if err := fn(ctx); err != nil {
				return false, wrap(f.DisplayPath(), err)
			}
		}

		return false, nil
	}
}

func (l *lowering) construct(op *plan.Construct) opFunc {
	if !op.Local {
		l.inline = op
		return nil
	}

	strategy := op.Strategy
	target := l.key.Target

	return func(f *Frame) (bool, error) {
		v, err := newTarget(f, strategy, target)
		if err != nil {
			return false, wrap(f.DisplayPath(), err)
		}

		f.target = v

		return false, nil
	}
}

// newTarget returns the existing target of the frame, or a new one.
func newTarget(f *Frame, strategy construct.Strategy, target reflect.Type) (reflect.Value, error) {
	if existing := unwrap(f.Existing); !isNil(existing) {
		if v, err := holder(existing, target); err == nil {
			return v, nil
		}
	}

	v, err := strategy.New(f.Context(), 0)
	if err != nil {
		return reflect.Value{}, err
	}

	return holder(v, target)
}

func (l *lowering) populate(op *plan.Populate) (opFunc, error) {
	value, err := l.expr(op.Source.Value)
	if err != nil {
		return nil, err
	}

	cond, err := l.cond(op.Condition())
	if err != nil {
		return nil, err
	}

	m := op.Member
	reset := l.key.RuleSet == mapping.Overwrite
	zero := reflect.Zero(m.Type())

	set := func(f *Frame, v reflect.Value) error {
		if !f.target.IsValid() {
			f.pending = append(f.pending, assignment{member: m, value: v})
			return nil
		}

		return setMember(f.target, m, v)
	}

	return func(f *Frame) (bool, error) {
		path := joinPath(f.DisplayPath(), m.Name())

		if cond != nil {
			ok, err := cond(f)
			if err != nil {
				return false, wrap(path, err)
			}

			if !ok {
				if reset {
					return false, wrap(path, set(f, zero))
				}

				return false, nil
			}
		}

		v, ok, err := value(f)
		if err != nil {
			return false, wrap(path, err)
		}

		if !ok {
			if reset {
				return false, wrap(path, set(f, zero))
			}

			return false, nil
		}

		return false, wrap(path, set(f, v))
	}, nil
}

func (l *lowering) ret(op *plan.Return) (opFunc, error) {
	if op.Value != nil {
		value, err := l.expr(op.Value)
		if err != nil {
			return nil, err
		}

		return func(f *Frame) (bool, error) {
			v, ok, err := value(f)
			if err != nil {
				return true, wrap(f.DisplayPath(), err)
			}

			if ok {
				f.target = v
			}

			return true, nil
		}, nil
	}

	inline := l.inline
	target := l.key.Target

	return func(f *Frame) (bool, error) {
		if !f.target.IsValid() && inline != nil {
			v, err := newTarget(f, inline.Strategy, target)
			if err != nil {
				return true, wrap(f.DisplayPath(), err)
			}

			for _, a := range f.pending {
				if err := setMember(v, a.member, a.value); err != nil {
					return true, wrap(joinPath(f.DisplayPath(), a.member.Name()), err)
				}
			}

			f.target, f.pending = v, nil
		}

		if !f.target.IsValid() {
			f.target = f.Existing
		}

		return true, nil
	}, nil
}

func (l *lowering) dispatch(op *plan.Dispatch) (opFunc, error) {
	conds := make([]condFunc, len(op.Branches))

	for i, b := range op.Branches {
		c, err := l.cond(b.Condition)
		if err != nil {
			return nil, err
		}

		conds[i] = c
	}

	branches, fallback := op.Branches, op.Fallback

	return func(f *Frame) (bool, error) {
		var concrete reflect.Type

		existing := unwrap(f.Existing)
		if !isNil(existing) {
			concrete = existing.Type()
		}

		for i := 0; concrete == nil && i < len(branches); i++ {
			ok := conds[i] == nil
			if !ok {
				var err error
				if ok, err = conds[i](f); err != nil {
					return false, wrap(f.DisplayPath(), err)
				}
			}

			if ok {
				concrete = branches[i].Concrete
			}
		}

		if concrete == nil {
			concrete = fallback
		}

		if concrete == nil || !f.Source.IsValid() {
			return false, nil
		}

		exec, err := l.links.get(l.key.Nested(l.key.Source, concrete, l.key.Position))
		if err != nil {
			return false, wrap(f.DisplayPath(), err)
		}

		v, err := exec(f.sibling(existing))
		if err != nil {
			return false, err
		}

		f.target = v

		return false, nil
	}, nil
}

// mapCall runs the nested plan for the runtime type of the value.
func (l *lowering) mapCall(e *datasource.MapCall) (evalFunc, error) {
	if e.Keyed != nil {
		return l.keyedCall(e), nil
	}

	from, err := l.expr(e.From)
	if err != nil {
		return nil, err
	}

	return func(f *Frame) (reflect.Value, bool, error) {
		v, ok, err := from(f)
		if err != nil || !ok {
			return reflect.Value{}, false, err
		}

		source := unwrap(v)
		if isNil(source) || (!isNested(source.Type()) && isNested(e.Target)) {
			return reflect.Value{}, false, nil
		}

		return l.run(f, l.key.Nested(source.Type(), e.Target, e.Position), e, source, nil)
	}, nil
}

// keyedCall maps the part of a keyed source below the member's key prefixes.
// A key holding a nested value is mapped as a source of its own.
func (l *lowering) keyedCall(e *datasource.MapCall) evalFunc {
	keyed := e.Keyed
	_, fromElement := e.From.(*datasource.Element)

	return func(f *Frame) (reflect.Value, bool, error) {
		var prefixes []string
		if fromElement {
			prefixes = f.elementPrefixes
		} else {
			prefixes = append(append([]string(nil), keyed.Full...), keyed.Settings.ChildPrefixes(f.Prefixes, keyed.Names)...)
		}

		keys := f.sourceKeys()

		if key, ok := match.FindKey(keys, prefixes); ok {
			if v, found := keyedGet(f.Source, key); found {
				if nested := unwrap(v); !isNil(nested) && isNested(nested.Type()) {
					return l.run(f, l.key.Nested(nested.Type(), e.Target, e.Position), e, nested, nil)
				}
			}
		}

		narrowed := match.Narrow(keys, prefixes)
		if len(narrowed) == 0 {
			if _, ok := match.FindKey(keys, keyed.Deep); !ok || len(prefixes) == 0 {
				return reflect.Value{}, false, nil
			}

			narrowed = prefixes
		}

		return l.run(f, l.key.Nested(l.key.Source, e.Target, e.Position), e, f.Source, narrowed)
	}
}

func (l *lowering) run(f *Frame, key plan.Key, e *datasource.MapCall, source reflect.Value, prefixes []string) (reflect.Value, bool, error) {
	exec, err := l.links.get(key)
	if err != nil {
		return reflect.Value{}, false, err
	}

	var existing reflect.Value
	if e.Existing {
		existing = f.existingOf(e.Member)
	}

	c := f.child(source, existing, e.Member.Name())
	if prefixes != nil {
		c.Prefixes = prefixes
	}

	v, err := exec(c)
	if err != nil {
		return reflect.Value{}, false, err
	}

	return v, true, nil
}

func isNested(t reflect.Type) bool {
	return member.Classify(t) != member.CategorySimple
}
