package emit

import (
	"fmt"
	"reflect"

	"graph-mapper/internal/member"
)

// coerce fits v to type to, looking through interfaces and adding or
// removing one level of pointer. Missing and nil values give the zero value.
func coerce(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Zero(to), nil
	}

	if v.Type().AssignableTo(to) {
		return v, nil
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}

		return coerce(v.Elem(), to)
	}

	if to.Kind() == reflect.Pointer && v.Type().AssignableTo(to.Elem()) {
		p := reflect.New(to.Elem())
		p.Elem().Set(v)

		return p, nil
	}

	if v.Kind() == reflect.Pointer && v.Type().Elem().AssignableTo(to) {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}

		return v.Elem(), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotAssignable, v.Type(), to)
}

// holder returns a settable copy of v for value types; pointers are kept.
func holder(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	v, err := coerce(v, t)
	if err != nil {
		return reflect.Value{}, err
	}

	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return v, nil
	}

	h := reflect.New(t).Elem()
	h.Set(v)

	return h, nil
}

// setMember assigns value to member m of target.
func setMember(target reflect.Value, m member.Member, value reflect.Value) error {
	slot, ok := m.Settable(target)
	if !ok {
		return fmt.Errorf("%w: member %s is not settable", ErrNotAssignable, m.Name())
	}

	v, err := coerce(value, slot.Type())
	if err != nil {
		return err
	}

	slot.Set(v)

	return nil
}
