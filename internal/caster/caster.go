// Package caster registers user conversion functions between two types.
// A registered caster takes priority over the built-in primitive
// conversions and over nested mapping for its exact type pair.
package caster

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"graph-mapper/utils"
)

var (
	ErrIsNotACaster         = errors.New("provided function is not a recognizable caster")
	ErrCasterIsNotAFunction = errors.New("provided caster is not a function")
	ErrDoublePointer        = errors.New("caster function does not support double pointers")
	// ErrRejected is returned when a caster reports false for a value.
	ErrRejected = errors.New("caster rejected value")
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Caster describes a conversion function.
type Caster struct {
	Src, Dst     reflect.Type
	PackageAlias string
	Name         string
	HasBool      bool
	HasErr       bool

	fn reflect.Value
}

// ParseCaster inspects the provided function and returns a Caster struct if it is a valid caster function.
//
// Supports interfaces:
//   - func(src Type) (dst Type)
//   - func(src Type) (dst Type, bool)
//   - func(src Type) (dst Type, error)
//   - func(src Type) (dst Type, bool, error)
func ParseCaster(fn any) (Caster, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return Caster{}, ErrCasterIsNotAFunction
	}

	fnType := fnVal.Type()
	if fnType.NumIn() != 1 || fnType.NumOut() == 0 || fnType.IsVariadic() {
		return Caster{}, ErrIsNotACaster
	}

	src := fnType.In(0)
	if src.Kind() == reflect.Pointer && src.Elem().Kind() == reflect.Pointer {
		return Caster{}, ErrDoublePointer
	}

	dst := fnType.Out(0)
	if dst.Kind() == reflect.Pointer && dst.Elem().Kind() == reflect.Pointer {
		return Caster{}, ErrDoublePointer
	}

	// import paths may contain dots, so split after the last slash
	full := runtime.FuncForPC(fnVal.Pointer()).Name()
	slash := strings.LastIndex(full, "/") + 1
	pkg, name := utils.Unpack2(strings.SplitN(full[slash:], ".", 2))
	alias := full[:slash] + pkg

	caster := Caster{
		Src:          src,
		Dst:          dst,
		Name:         name,
		PackageAlias: utils.Second(path.Split(alias)),
		fn:           fnVal,
	}

	switch fnType.NumOut() {
	default:
		return Caster{}, ErrIsNotACaster

	case 1:
		return caster, nil

	case 2:
		last := fnType.Out(1)

		switch {
		default:
			return Caster{}, ErrIsNotACaster
		case last.Kind() == reflect.Bool:
			caster.HasBool = true
		case isError(last):
			caster.HasErr = true
		}

		return caster, nil

	case 3:
		tbool, terr := fnType.Out(1), fnType.Out(2)
		if tbool.Kind() != reflect.Bool || !isError(terr) {
			return Caster{}, ErrIsNotACaster
		}

		caster.HasBool = true
		caster.HasErr = true

		return caster, nil
	}
}

// String returns the qualified function name.
func (c Caster) String() string {
	if c.PackageAlias == "" {
		return c.Name
	}

	return c.PackageAlias + "." + c.Name
}

// Call runs the caster. A false boolean result is reported as ErrRejected.
func (c Caster) Call(v reflect.Value) (reflect.Value, error) {
	if !v.IsValid() {
		v = reflect.Zero(c.Src)
	}

	if v.Kind() == reflect.Pointer && v.Type().Elem() == c.Src {
		if v.IsNil() {
			v = reflect.Zero(c.Src)
		} else {
			v = v.Elem()
		}
	}

	if v.Type() != c.Src {
		if !v.Type().AssignableTo(c.Src) {
			return reflect.Value{}, fmt.Errorf("caster %s: cannot pass %s as %s", c, v.Type(), c.Src)
		}

		converted := reflect.New(c.Src).Elem()
		converted.Set(v)
		v = converted
	}

	out := c.fn.Call([]reflect.Value{v})

	if c.HasErr {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return reflect.Value{}, err
		}
	}

	if c.HasBool && !out[1].Bool() {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrRejected, c)
	}

	return out[0], nil
}

func isError(t reflect.Type) bool {
	return t != nil && t.Implements(errorType)
}

// Registry holds casters by source and target type.
type Registry struct {
	mu      sync.RWMutex
	casters map[[2]reflect.Type]Caster
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{casters: make(map[[2]reflect.Type]Caster)}
}

// Add parses and registers fn, replacing any caster for the same pair.
func (r *Registry) Add(fn any) (Caster, error) {
	c, err := ParseCaster(fn)
	if err != nil {
		return Caster{}, err
	}

	r.mu.Lock()
	r.casters[[2]reflect.Type{c.Src, c.Dst}] = c
	r.mu.Unlock()

	return c, nil
}

// Find returns the caster for the pair. A caster taking a struct also
// serves pointers to that struct.
func (r *Registry) Find(src, dst reflect.Type) (Caster, bool) {
	if r == nil {
		return Caster{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.casters[[2]reflect.Type{src, dst}]; ok {
		return c, true
	}

	if src != nil && src.Kind() == reflect.Pointer {
		c, ok := r.casters[[2]reflect.Type{src.Elem(), dst}]
		return c, ok
	}

	return Caster{}, false
}
