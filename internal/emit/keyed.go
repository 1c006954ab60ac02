package emit

import (
	"fmt"
	"reflect"
	"sort"

	"graph-mapper/internal/member"
)

var (
	anyType     = reflect.TypeOf((*any)(nil)).Elem()
	dynamicType = reflect.TypeOf((*member.Dynamic)(nil)).Elem()
)

// unwrap looks through interfaces.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}

// isNil reports whether v is missing or a nil reference.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func asDynamic(v reflect.Value) (member.Dynamic, bool) {
	v = unwrap(v)
	if !v.IsValid() || !v.Type().Implements(dynamicType) || isNil(v) || !v.CanInterface() {
		return nil, false
	}

	d, ok := v.Interface().(member.Dynamic)

	return d, ok
}

// asMap looks through pointers to a map value.
func asMap(v reflect.Value) (reflect.Value, bool) {
	v = unwrap(v)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}

		v = v.Elem()
	}

	return v, v.IsValid() && v.Kind() == reflect.Map && !v.IsNil()
}

// keysOf lists the keys of a keyed value: insertion order for Dynamic
// values, sorted for maps.
func keysOf(v reflect.Value) []string {
	if d, ok := asDynamic(v); ok {
		return d.Keys()
	}

	m, ok := asMap(v)
	if !ok {
		return nil
	}

	keys := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		keys = append(keys, keyString(k))
	}

	sort.Strings(keys)

	return keys
}

// keyedGet reads the value stored under key.
func keyedGet(v reflect.Value, key string) (reflect.Value, bool) {
	if d, ok := asDynamic(v); ok {
		x, found := d.TryGetValue(key)
		if !found {
			return reflect.Value{}, false
		}

		if x == nil {
			return reflect.Zero(anyType), true
		}

		return reflect.ValueOf(x), true
	}

	m, ok := asMap(v)
	if !ok {
		return reflect.Value{}, false
	}

	if m.Type().Key().Kind() == reflect.String {
		val := m.MapIndex(reflect.ValueOf(key).Convert(m.Type().Key()))
		return val, val.IsValid()
	}

	iter := m.MapRange()
	for iter.Next() {
		if keyString(iter.Key()) == key {
			return iter.Value(), true
		}
	}

	return reflect.Value{}, false
}

func keyString(k reflect.Value) string {
	k = unwrap(k)
	if !k.IsValid() {
		return ""
	}

	if k.Kind() == reflect.String {
		return k.String()
	}

	return fmt.Sprint(k.Interface())
}

// sortedEntries returns the values of a map in key order.
func sortedEntries(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keyString(keys[i]) < keyString(keys[j]) })

	values := make([]reflect.Value, len(keys))
	for i, k := range keys {
		values[i] = m.MapIndex(k)
	}

	return values
}
