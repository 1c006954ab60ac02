// Package registry remembers the targets produced during one mapping call,
// so objects reached twice map to one target and cycles terminate.
//
// A Registry belongs to a single root call and is not safe for concurrent use.
package registry

import (
	"reflect"

	"graph-mapper/internal/mapping"
)

// address identifies a pointer or map source by address and type.
type address struct {
	ptr uintptr
	typ reflect.Type
}

// identified is a configured identifier's result, scoped to the source type
// it was computed for.
type identified struct {
	id  any
	typ reflect.Type
}

type entry struct {
	id     any
	target reflect.Type
}

// Registry maps (source identity, target type) to the produced target.
type Registry struct {
	entries map[entry]reflect.Value
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[entry]reflect.Value)}
}

// Identity returns the identity of a source value: the configured
// identifier's result with the source type when identify is set, else the
// address of pointer and map values. Other values have no identity.
func Identity(source reflect.Value, identify mapping.IdentifierFunc) (any, bool) {
	for source.IsValid() && source.Kind() == reflect.Interface {
		source = source.Elem()
	}

	if !source.IsValid() {
		return nil, false
	}

	if identify != nil {
		if !source.CanInterface() {
			return nil, false
		}

		id := identify(source.Interface())
		if id == nil || !reflect.TypeOf(id).Comparable() {
			return nil, false
		}

		return identified{id: id, typ: source.Type()}, true
	}

	switch source.Kind() {
	case reflect.Pointer, reflect.Map:
		if source.IsNil() {
			return nil, false
		}

		return address{ptr: source.Pointer(), typ: source.Type()}, true
	default:
		return nil, false
	}
}

// Register records instance as the target of type target produced for id.
func (r *Registry) Register(id any, target reflect.Type, instance reflect.Value) {
	r.entries[entry{id: id, target: target}] = instance
}

// Lookup returns the target of type target already produced for id.
func (r *Registry) Lookup(id any, target reflect.Type) (reflect.Value, bool) {
	v, ok := r.entries[entry{id: id, target: target}]
	return v, ok
}

// Len returns the number of registered targets.
func (r *Registry) Len() int {
	return len(r.entries)
}
