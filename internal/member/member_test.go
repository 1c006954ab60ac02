package member

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type address struct {
	Line1 string `json:"line_1"`
	Line2 string
}

type person struct {
	Name     string
	Address  *address
	Tags     []string
	Extra    map[string]any
	Born     time.Time
	internal int
	Skipped  int `map:"-"`
}

type base struct {
	ID   int
	Name string
}

type derived struct {
	base
	Name  string // shadows base.Name
	Extra int
}

type Core struct {
	ID int
}

type withPtrEmbed struct {
	*Core
	Code string
}

type shape interface{ Area() float64 }

type square struct{ Side float64 }

func (s *square) Area() float64 { return s.Side * s.Side }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected Category
	}{
		{"int", reflect.TypeOf(0), CategorySimple},
		{"string ptr", reflect.TypeOf(new(string)), CategorySimple},
		{"time", reflect.TypeOf(time.Time{}), CategorySimple},
		{"duration", reflect.TypeOf(time.Second), CategorySimple},
		{"bytes", reflect.TypeOf([]byte{}), CategorySimple},
		{"any", reflect.TypeOf((*any)(nil)).Elem(), CategorySimple},
		{"struct", reflect.TypeOf(person{}), CategoryComplex},
		{"struct ptr", reflect.TypeOf(&person{}), CategoryComplex},
		{"interface", reflect.TypeOf((*shape)(nil)).Elem(), CategoryComplex},
		{"slice", reflect.TypeOf([]person{}), CategoryEnumerable},
		{"array", reflect.TypeOf([3]int{}), CategoryEnumerable},
		{"map", reflect.TypeOf(map[string]int{}), CategoryDictionary},
		{"expando", reflect.TypeOf(&Expando{}), CategoryDynamic},
		{"dynamic interface", reflect.TypeOf((*Dynamic)(nil)).Elem(), CategoryDynamic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.typ))
		})
	}
}

func TestHasStringKey(t *testing.T) {
	assert.True(t, HasStringKey(reflect.TypeOf(map[string]int{})))
	assert.True(t, HasStringKey(reflect.TypeOf(map[any]int{})))
	assert.False(t, HasStringKey(reflect.TypeOf(map[int]string{})))
	assert.False(t, HasStringKey(reflect.TypeOf([]string{})))
}

func TestAssignableFrom(t *testing.T) {
	shapeType := reflect.TypeOf((*shape)(nil)).Elem()

	assert.True(t, AssignableFrom(reflect.TypeOf(base{}), reflect.TypeOf(derived{})))
	assert.True(t, AssignableFrom(reflect.TypeOf(Core{}), reflect.TypeOf(&withPtrEmbed{})))
	assert.False(t, AssignableFrom(reflect.TypeOf(derived{}), reflect.TypeOf(base{})))
	assert.True(t, AssignableFrom(shapeType, reflect.TypeOf(square{})))
	assert.True(t, AssignableFrom(shapeType, reflect.TypeOf(&square{})))
	assert.False(t, AssignableFrom(shapeType, reflect.TypeOf(base{})))
}

func TestIntrospector_EnumerateMembers(t *testing.T) {
	in := NewIntrospector()

	members := in.EnumerateMembers(reflect.TypeOf(&person{}))
	names := make([]string, 0, len(members))

	for _, m := range members {
		names = append(names, m.Name())
	}

	assert.Equal(t, []string{"Name", "Address", "Tags", "Extra", "Born"}, names)

	again := in.EnumerateMembers(reflect.TypeOf(person{}))
	assert.Equal(t, members, again)

	t.Run("promoted and shadowed fields", func(t *testing.T) {
		members := in.EnumerateMembers(reflect.TypeOf(derived{}))
		names := make([]string, 0, len(members))

		for _, m := range members {
			names = append(names, m.Name())
		}

		assert.Equal(t, []string{"ID", "Name", "Extra"}, names)

		name, ok := FindMember(members, "name")
		require.True(t, ok)
		assert.Equal(t, []int{1}, name.index)
	})

	t.Run("non struct", func(t *testing.T) {
		assert.Empty(t, in.EnumerateMembers(reflect.TypeOf(42)))
	})
}

func TestMember_TagNamesAndFind(t *testing.T) {
	in := NewIntrospector()

	m, ok := in.Find(reflect.TypeOf(address{}), "line_1")
	require.True(t, ok)
	assert.Equal(t, "Line1", m.Name())
	assert.Equal(t, []string{"line_1"}, m.AlternateNames())
}

func TestMember_GetAndSettable(t *testing.T) {
	in := NewIntrospector()

	code, ok := in.Find(reflect.TypeOf(withPtrEmbed{}), "ID")
	require.True(t, ok)

	target := &withPtrEmbed{}
	_, ok = code.Get(reflect.ValueOf(target))
	assert.False(t, ok, "nil embedded pointer is not readable")

	field, ok := code.Settable(reflect.ValueOf(target))
	require.True(t, ok)
	field.SetInt(7)

	require.NotNil(t, target.Core)
	assert.Equal(t, 7, target.ID)

	got, ok := code.Get(reflect.ValueOf(target))
	require.True(t, ok)
	assert.Equal(t, int64(7), got.Int())

	_, ok = code.Settable(reflect.ValueOf(withPtrEmbed{}))
	assert.False(t, ok, "values passed by copy are not settable")
}

func TestCreateElementMember(t *testing.T) {
	m := CreateElementMember(reflect.TypeOf([]address{}))

	assert.Equal(t, KindElement, m.Kind())
	assert.Equal(t, reflect.TypeOf(address{}), m.Type())
	assert.Equal(t, CategoryComplex, m.Category())
}

func TestMember_WithType(t *testing.T) {
	m := CreateElementMember(reflect.TypeOf([]shape{}))
	narrowed := m.WithType(reflect.TypeOf(&square{}))

	assert.Equal(t, reflect.TypeOf((*shape)(nil)).Elem(), m.Type())
	assert.Equal(t, reflect.TypeOf(&square{}), narrowed.Type())
}

func TestExpando(t *testing.T) {
	e := NewExpando()
	e.Set("b", 1)
	e.Set("a", 2)
	e.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, e.Keys())
	assert.Equal(t, 2, e.Len())

	v, ok := e.TryGetValue("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = e.TryGetValue("B")
	assert.False(t, ok)
}
