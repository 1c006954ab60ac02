package member

import (
	"reflect"
	"strings"
)

// Member is one step into an object graph. Members are values and are never
// modified after creation; narrowing methods return copies.
type Member struct {
	kind      Kind
	name      string
	declaring reflect.Type
	typ       reflect.Type
	index     []int
	names     []string
}

// NewField creates a field member of declaring from a struct field.
func NewField(declaring reflect.Type, f reflect.StructField) Member {
	return Member{
		kind:      KindField,
		name:      f.Name,
		declaring: declaring,
		typ:       f.Type,
		index:     f.Index,
		names:     tagNames(f),
	}
}

// CreateElementMember synthesizes the member standing for "the element of"
// the given enumerable type.
func CreateElementMember(enumerable reflect.Type) Member {
	t := Deref(enumerable)

	var elem reflect.Type
	if t != nil && (t.Kind() == reflect.Slice || t.Kind() == reflect.Array || t.Kind() == reflect.Map) {
		elem = t.Elem()
	}

	return Member{kind: KindElement, name: "[i]", declaring: enumerable, typ: elem}
}

// CreateEntryMember synthesizes the member standing for the dictionary entry
// stored under key.
func CreateEntryMember(dictionary reflect.Type, key string, value reflect.Type) Member {
	return Member{kind: KindEntry, name: key, declaring: dictionary, typ: value}
}

func rootMember(t reflect.Type) Member {
	return Member{kind: KindRoot, declaring: t, typ: t}
}

// Kind returns the step kind.
func (m Member) Kind() Kind { return m.kind }

// Name returns the member name as declared.
func (m Member) Name() string { return m.name }

// DeclaringType returns the type the member belongs to.
func (m Member) DeclaringType() reflect.Type { return m.declaring }

// Type returns the member value type.
func (m Member) Type() reflect.Type { return m.typ }

// Category classifies the member value type.
func (m Member) Category() Category { return Classify(m.typ) }

// IsSimple reports whether the member holds a single scalar-like value.
func (m Member) IsSimple() bool { return m.Category() == CategorySimple }

// IsNullable reports whether the member value can be nil.
func (m Member) IsNullable() bool { return IsNullable(m.typ) }

// AlternateNames returns the names declared through struct tags.
func (m Member) AlternateNames() []string {
	return append([]string(nil), m.names...)
}

// WithType returns a copy of m whose value type is t.
func (m Member) WithType(t reflect.Type) Member {
	if m.typ == t {
		return m
	}

	m.typ = t

	return m
}

// String returns the path segment of the member.
func (m Member) String() string {
	switch m.kind {
	case KindElement:
		return "[i]"
	case KindEntry:
		return "[" + m.name + "]"
	default:
		return m.name
	}
}

// Get reads the member from a struct value (pointers are followed). The
// boolean is false when the struct or an embedded pointer on the way is nil.
func (m Member) Get(v reflect.Value) (reflect.Value, bool) {
	v, ok := indirect(v)
	if !ok || v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	f, err := v.FieldByIndexErr(m.index)
	if err != nil {
		return reflect.Value{}, false
	}

	return f, true
}

// Settable returns the addressable member field of the struct held by v,
// allocating nil embedded pointers on the way.
func (m Member) Settable(v reflect.Value) (reflect.Value, bool) {
	v, ok := indirect(v)
	if !ok || v.Kind() != reflect.Struct || !v.CanSet() {
		return reflect.Value{}, false
	}

	for i, x := range m.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}

				v.Set(reflect.New(v.Type().Elem()))
			}

			v = v.Elem()
		}

		v = v.Field(x)
	}

	return v, v.CanSet()
}

func indirect(v reflect.Value) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}

		v = v.Elem()
	}

	return v, v.IsValid()
}

func tagNames(f reflect.StructField) []string {
	var names []string

	for _, tag := range []string{"map", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "" || name == "-" || strings.EqualFold(name, f.Name) {
			continue
		}

		names = append(names, name)
	}

	return names
}
