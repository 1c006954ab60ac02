package member

import (
	"reflect"
	"time"
)

// Kind identifies what a single step into an object graph addresses.
type Kind int

const (
	KindRoot Kind = iota
	KindField
	KindElement
	KindEntry
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindField:
		return "field"
	case KindElement:
		return "element"
	case KindEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// Category classifies a value shape for mapping purposes.
type Category int

const (
	CategorySimple Category = iota
	CategoryComplex
	CategoryEnumerable
	CategoryDictionary
	CategoryDynamic
)

// String returns a human-readable category name.
func (c Category) String() string {
	switch c {
	case CategorySimple:
		return "simple"
	case CategoryComplex:
		return "complex"
	case CategoryEnumerable:
		return "enumerable"
	case CategoryDictionary:
		return "dictionary"
	case CategoryDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// IsKeyed reports whether values of the category are read by string key.
func (c Category) IsKeyed() bool {
	return c == CategoryDictionary || c == CategoryDynamic
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
	dynamicType = reflect.TypeOf((*Dynamic)(nil)).Elem()
)

// Classify returns the category of t. Pointers are looked through.
func Classify(t reflect.Type) Category {
	if t == nil {
		return CategorySimple
	}

	t = Deref(t)
	if IsDynamic(t) {
		return CategoryDynamic
	}

	if t == timeType || t == bytesType {
		return CategorySimple
	}

	switch t.Kind() {
	case reflect.Struct:
		return CategoryComplex
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return CategorySimple
		}

		return CategoryComplex
	case reflect.Map:
		return CategoryDictionary
	case reflect.Slice, reflect.Array:
		return CategoryEnumerable
	default:
		return CategorySimple
	}
}

// IsDynamic reports whether t (or a pointer to t) implements Dynamic.
func IsDynamic(t reflect.Type) bool {
	if t == nil {
		return false
	}

	if t.Implements(dynamicType) {
		return true
	}

	return t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface &&
		reflect.PointerTo(t).Implements(dynamicType)
}

// IsNullable reports whether a value of type t can be nil.
func IsNullable(t reflect.Type) bool {
	if t == nil {
		return true
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// Deref strips all pointer levels from t.
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}

// HasStringKey reports whether t is a map keyed by string or by the empty
// interface, the only dictionary shapes keyed lookups can address.
func HasStringKey(t reflect.Type) bool {
	t = Deref(t)
	if t == nil || t.Kind() != reflect.Map {
		return false
	}

	key := t.Key()

	return key.Kind() == reflect.String || (key.Kind() == reflect.Interface && key.NumMethod() == 0)
}

// AssignableFrom reports whether a value of type derived may stand in for
// base: the types are equal, derived embeds base (transitively), or base is
// an interface that derived implements.
func AssignableFrom(base, derived reflect.Type) bool {
	if base == nil || derived == nil {
		return false
	}

	if base == derived {
		return true
	}

	if base.Kind() == reflect.Interface {
		if derived.Implements(base) {
			return true
		}

		return derived.Kind() != reflect.Pointer && derived.Kind() != reflect.Interface &&
			reflect.PointerTo(derived).Implements(base)
	}

	b, d := Deref(base), Deref(derived)
	if b == d {
		return true
	}

	return embeds(d, b, map[reflect.Type]bool{})
}

func embeds(t, target reflect.Type, seen map[reflect.Type]bool) bool {
	if t.Kind() != reflect.Struct || seen[t] {
		return false
	}

	seen[t] = true

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		ft := Deref(f.Type)
		if ft == target || embeds(ft, target, seen) {
			return true
		}
	}

	return false
}
