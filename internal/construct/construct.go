// Package construct decides how mapping targets are created: by a configured
// factory, or by allocating the zero value of the target type.
package construct

import (
	"errors"
	"fmt"
	"reflect"

	"graph-mapper/internal/common"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/member"
)

var (
	// ErrAmbiguousConstruction is returned when two factories are equally
	// specific for a target.
	ErrAmbiguousConstruction = errors.New("ambiguous construction")
	// ErrNotConstructible is returned for targets that cannot be allocated.
	ErrNotConstructible = errors.New("target type cannot be constructed")
	// ErrFactoryResult is returned when a factory produces a value of the
	// wrong type.
	ErrFactoryResult = errors.New("factory returned an incompatible value")
)

// Kind is the construction method of a strategy.
type Kind int

const (
	// KindNew allocates a struct, or a pointer to one.
	KindNew Kind = iota
	// KindMakeMap creates an empty map.
	KindMakeMap
	// KindMakeSlice creates an empty slice.
	KindMakeSlice
	// KindArray starts from the zero array.
	KindArray
	// KindExpando creates a member.Expando for Dynamic targets.
	KindExpando
	// KindFactory calls a configured factory.
	KindFactory
)

// Strategy creates targets of one type.
type Strategy struct {
	Type    reflect.Type
	Kind    Kind
	Factory mapping.Factory
	Desc    string
}

// Resolve picks the construction strategy for the target of q. The most
// specific configured factory wins; factories tied at the top are ambiguous.
func Resolve(cfg *mapping.Config, q mapping.Query) (Strategy, error) {
	factories := cfg.Factories(q)
	if first, ok := common.First(factories); ok {
		top := first.Specificity(q)
		if common.IsMultiple(factories) && factories[1].Specificity(q) == top {
			return Strategy{}, fmt.Errorf("%w: %d factories for %s", ErrAmbiguousConstruction, countAt(factories, q, top), q.Target)
		}

		return Strategy{
			Type:    q.Target,
			Kind:    KindFactory,
			Factory: first.Factory,
			Desc:    "factory",
		}, nil
	}

	return zeroStrategy(q.Target)
}

func countAt(factories []mapping.FactoryRule, q mapping.Query, specificity int) int {
	n := 0

	for _, f := range factories {
		if f.Specificity(q) == specificity {
			n++
		}
	}

	return n
}

func zeroStrategy(t reflect.Type) (Strategy, error) {
	if t.Kind() == reflect.Interface && member.IsDynamic(t) {
		return Strategy{Type: t, Kind: KindExpando, Desc: "new expando"}, nil
	}

	base := member.Deref(t)

	switch base.Kind() {
	case reflect.Struct:
		return Strategy{Type: t, Kind: KindNew, Desc: "new " + base.String()}, nil
	case reflect.Map:
		return Strategy{Type: t, Kind: KindMakeMap, Desc: "make " + base.String()}, nil
	case reflect.Slice:
		return Strategy{Type: t, Kind: KindMakeSlice, Desc: "make " + base.String()}, nil
	case reflect.Array:
		return Strategy{Type: t, Kind: KindArray, Desc: "zero " + base.String()}, nil
	default:
		return Strategy{}, fmt.Errorf("%w: %s", ErrNotConstructible, t)
	}
}

// New creates a target. The result has the strategy type; pointer types get
// a fresh addressable element.
func (s Strategy) New(ctx mapping.Context, capacity int) (reflect.Value, error) {
	switch s.Kind {
	case KindFactory:
		return s.fromFactory(ctx)
	case KindExpando:
		return reflect.ValueOf(member.NewExpando()).Convert(s.Type), nil
	}

	base := member.Deref(s.Type)

	var v reflect.Value

	switch s.Kind {
	case KindMakeMap:
		v = reflect.New(base).Elem()
		v.Set(reflect.MakeMapWithSize(base, max(capacity, 0)))
	case KindMakeSlice:
		v = reflect.New(base).Elem()
		v.Set(reflect.MakeSlice(base, 0, max(capacity, 0)))
	default:
		v = reflect.New(base).Elem()
	}

	if s.Type.Kind() == reflect.Pointer {
		return v.Addr(), nil
	}

	return v, nil
}

func (s Strategy) fromFactory(ctx mapping.Context) (reflect.Value, error) {
	out, err := s.Factory(ctx)
	if err != nil {
		return reflect.Value{}, err
	}

	if out == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrFactoryResult, s.Type)
	}

	v := reflect.ValueOf(out)

	switch {
	case v.Type().AssignableTo(s.Type):
		return v, nil
	case v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(s.Type):
		return v.Elem(), nil
	case s.Type.Kind() == reflect.Pointer && v.Type().AssignableTo(s.Type.Elem()):
		p := reflect.New(s.Type.Elem())
		p.Elem().Set(v)

		return p, nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s for %s", ErrFactoryResult, v.Type(), s.Type)
	}
}

// String describes the strategy.
func (s Strategy) String() string {
	return s.Desc
}
