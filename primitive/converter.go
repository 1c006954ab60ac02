package primitive

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"graph-mapper/utils"
)

// ErrConversion is wrapped by every ConversionError.
var ErrConversion = errors.New("value conversion failed")

// ConversionError describes a value that could not be converted.
type ConversionError struct {
	From  reflect.Type
	To    reflect.Type
	Value any
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %v (%v) to %v: %v", e.Value, e.From, e.To, e.Err)
}

// Unwrap exposes both ErrConversion and the underlying cause.
func (e *ConversionError) Unwrap() []error {
	return []error{ErrConversion, e.Err}
}

var (
	errNotAllowed = errors.New("conversion category not allowed")
	errOverflow   = errors.New("value out of range")
	errBool       = errors.New("not a boolean")
	emptyIface    = reflect.TypeOf((*any)(nil)).Elem()
	bytesType     = reflect.TypeOf([]byte(nil))
)

// Converter decides whether and how primitive values convert, limited to the
// allowed conversion categories.
type Converter struct {
	allowed CategoryEnum
	pairs   map[ConversionPair]struct{}
}

// NewConverter creates a converter applying the given categories.
func NewConverter(allowed CategoryEnum) *Converter {
	return &Converter{allowed: allowed, pairs: allowedSet(allowed)}
}

// Default converts between all supported categories.
var Default = NewConverter(CategoryAll)

// Allowed returns the enabled categories.
func (c *Converter) Allowed() CategoryEnum {
	return c.allowed
}

// CanConvert reports whether values of type from can be converted to to.
// Pointers on either side are looked through. A source typed as the empty
// interface is accepted for any primitive target; the runtime value decides.
func (c *Converter) CanConvert(from, to reflect.Type) bool {
	if from == nil || to == nil {
		return false
	}

	if from.AssignableTo(to) {
		return true
	}

	if to.Kind() == reflect.Pointer {
		return c.CanConvert(from, to.Elem())
	}

	if from.Kind() == reflect.Pointer {
		return c.CanConvert(from.Elem(), to)
	}

	if from == emptyIface {
		return Underlying(to) != 0 || to == bytesType
	}

	if isText(from) && isText(to) {
		return true
	}

	return c.allowedPair(from, to)
}

func (c *Converter) allowedPair(from, to reflect.Type) bool {
	fk, tk := Underlying(from), Underlying(to)
	if fk == 0 || tk == 0 {
		return false
	}

	if fk == tk {
		return true
	}

	if _, ok := c.pairs[ConversionPair{fk, tk}]; ok {
		return true
	}

	_, ok := c.pairs[ConversionPair{FromReflectType(from), FromReflectType(to)}]

	return ok
}

// Convert converts v to type to. Nil values yield the zero value of to.
func (c *Converter) Convert(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}

		v = v.Elem()
	}

	if !v.IsValid() {
		return reflect.Zero(to), nil
	}

	if v.Type().AssignableTo(to) {
		out := reflect.New(to).Elem()
		out.Set(v)

		return out, nil
	}

	if to.Kind() == reflect.Pointer {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return reflect.Zero(to), nil
		}

		inner, err := c.Convert(v, to.Elem())
		if err != nil {
			return reflect.Value{}, err
		}

		p := reflect.New(to.Elem())
		p.Elem().Set(inner)

		return p, nil
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Zero(to), nil
		}

		return c.Convert(v.Elem(), to)
	}

	if isText(v.Type()) && isText(to) {
		return v.Convert(to), nil
	}

	if !c.allowedPair(v.Type(), to) {
		return reflect.Value{}, c.fail(v, to, errNotAllowed)
	}

	out := reflect.New(to).Elem()
	if err := convertKind(v, Underlying(v.Type()), out, Underlying(to)); err != nil {
		return reflect.Value{}, c.fail(v, to, err)
	}

	return out, nil
}

func (c *Converter) fail(v reflect.Value, to reflect.Type, err error) error {
	var value any
	if v.CanInterface() {
		value = v.Interface()
	}

	return &ConversionError{From: v.Type(), To: to, Value: value, Err: err}
}

func isText(t reflect.Type) bool {
	return t == bytesType || (t.Kind() == reflect.String && Underlying(t) == KindString)
}

func convertKind(v reflect.Value, from KindEnum, out reflect.Value, to KindEnum) error {
	switch {
	case to == KindString:
		out.SetString(formatText(v, from))
		return nil
	case to == KindBool:
		return toBool(v, from, out)
	case to == KindTime:
		return toTime(v, from, out)
	case to == KindDuration:
		return toDuration(v, from, out)
	case to.IsInteger():
		return toInteger(v, from, out, to)
	case to.IsFloat():
		return toFloat(v, from, out)
	default:
		return errNotAllowed
	}
}

func formatText(v reflect.Value, from KindEnum) string {
	if (from.IsInteger() || from == KindBool) && v.CanInterface() {
		if s, ok := v.Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}

	switch {
	case from == KindString:
		return v.String()
	case from == KindBool:
		return strconv.FormatBool(v.Bool())
	case from == KindTime:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case from == KindDuration:
		return time.Duration(v.Int()).String()
	case from.IsSigned():
		return strconv.FormatInt(v.Int(), 10)
	case from.IsUnsigned():
		return strconv.FormatUint(v.Uint(), 10)
	case from.IsFloat():
		return strconv.FormatFloat(v.Float(), 'f', -1, from.Bits())
	default:
		return fmt.Sprint(v.Interface())
	}
}

func toBool(v reflect.Value, from KindEnum, out reflect.Value) error {
	switch {
	case from == KindString:
		switch strings.ToLower(strings.TrimSpace(v.String())) {
		case "true", "yes", "on", "1", "y":
			out.SetBool(true)
		case "false", "no", "off", "0", "n", "":
			out.SetBool(false)
		default:
			return errBool
		}
	case from.IsSigned():
		out.SetBool(v.Int() != 0)
	case from.IsUnsigned():
		out.SetBool(v.Uint() != 0)
	default:
		return errNotAllowed
	}

	return nil
}

func toTime(v reflect.Value, from KindEnum, out reflect.Value) error {
	switch {
	case from == KindString:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v.String()))
		if err != nil {
			return err
		}

		out.Set(reflect.ValueOf(t))
	case from.IsSigned():
		out.Set(reflect.ValueOf(time.Unix(v.Int(), 0).UTC()))
	case from.IsUnsigned():
		if v.Uint() > math.MaxInt64 {
			return errOverflow
		}

		out.Set(reflect.ValueOf(time.Unix(int64(v.Uint()), 0).UTC()))
	default:
		return errNotAllowed
	}

	return nil
}

func toDuration(v reflect.Value, from KindEnum, out reflect.Value) error {
	switch {
	case from == KindString:
		d, err := time.ParseDuration(strings.TrimSpace(v.String()))
		if err != nil {
			return err
		}

		out.SetInt(int64(d))
	case from.IsSigned():
		out.SetInt(v.Int())
	case from.IsUnsigned():
		if v.Uint() > math.MaxInt64 {
			return errOverflow
		}

		out.SetInt(int64(v.Uint()))
	case from.IsFloat():
		out.SetInt(int64(v.Float() * float64(time.Second)))
	default:
		return errNotAllowed
	}

	return nil
}

func toInteger(v reflect.Value, from KindEnum, out reflect.Value, to KindEnum) error {
	var (
		signed   int64
		unsigned uint64
		negative bool
	)

	switch {
	case from == KindString:
		text := strings.TrimSpace(v.String())
		if to.IsSigned() {
			n, err := strconv.ParseInt(text, 10, 64)
			if err != nil {
				return err
			}

			signed, negative = n, n < 0
			unsigned = uint64(n)
		} else {
			n, err := strconv.ParseUint(text, 10, 64)
			if err != nil {
				return err
			}

			unsigned = n
			signed = int64(n)
		}
	case from == KindBool:
		if v.Bool() {
			signed, unsigned = 1, 1
		}
	case from == KindTime:
		signed = v.Interface().(time.Time).Unix()
		unsigned, negative = uint64(signed), signed < 0
	case from == KindDuration || from.IsSigned():
		signed = v.Int()
		unsigned, negative = uint64(signed), signed < 0
	case from.IsUnsigned():
		unsigned = v.Uint()
		signed = int64(unsigned)

		if to.IsSigned() && unsigned > math.MaxInt64 {
			return errOverflow
		}
	case from.IsFloat():
		f := math.Trunc(v.Float())
		if !utils.IsInRange(math.MinInt64, f, math.MaxUint64) {
			return errOverflow
		}

		if f < 0 {
			signed, negative = int64(f), true
		} else if f > math.MaxInt64 {
			unsigned = uint64(f)
			signed = math.MaxInt64
		} else {
			signed = int64(f)
			unsigned = uint64(f)
		}
	default:
		return errNotAllowed
	}

	if to.IsSigned() {
		if out.OverflowInt(signed) {
			return errOverflow
		}

		out.SetInt(signed)

		return nil
	}

	if negative || out.OverflowUint(unsigned) {
		return errOverflow
	}

	out.SetUint(unsigned)

	return nil
}

func toFloat(v reflect.Value, from KindEnum, out reflect.Value) error {
	var f float64

	switch {
	case from == KindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.String()), out.Type().Bits())
		if err != nil {
			return err
		}

		f = n
	case from == KindDuration:
		f = time.Duration(v.Int()).Seconds()
	case from.IsSigned():
		f = float64(v.Int())
	case from.IsUnsigned():
		f = float64(v.Uint())
	case from.IsFloat():
		f = v.Float()
	default:
		return errNotAllowed
	}

	if out.OverflowFloat(f) {
		return errOverflow
	}

	out.SetFloat(f)

	return nil
}
