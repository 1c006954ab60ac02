package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	ID   int
	Next *node
}

type vendor struct {
	ID int
}

func TestIdentity(t *testing.T) {
	a, b := &node{ID: 1}, &node{ID: 1}

	idA, ok := Identity(reflect.ValueOf(a), nil)
	require.True(t, ok)

	idA2, _ := Identity(reflect.ValueOf(a), nil)
	idB, _ := Identity(reflect.ValueOf(b), nil)

	assert.Equal(t, idA, idA2)
	assert.NotEqual(t, idA, idB, "distinct objects have distinct identities")

	_, ok = Identity(reflect.ValueOf(node{}), nil)
	assert.False(t, ok, "struct values have no identity")

	_, ok = Identity(reflect.ValueOf((*node)(nil)), nil)
	assert.False(t, ok)

	byID := func(source any) any { return source.(*node).ID }
	idA, _ = Identity(reflect.ValueOf(a), byID)
	idB, _ = Identity(reflect.ValueOf(b), byID)
	assert.Equal(t, idA, idB, "configured identifiers decide identity")

	_, ok = Identity(reflect.ValueOf(a), func(any) any { return []int{1} })
	assert.False(t, ok, "incomparable identities are ignored")
}

func TestRegistry_IdentifiersAreScopedBySourceType(t *testing.T) {
	r := New()
	targetType := reflect.TypeOf(&node{})
	byID := func(source any) any {
		switch s := source.(type) {
		case *node:
			return s.ID
		case *vendor:
			return s.ID
		}

		return nil
	}

	customerID, ok := Identity(reflect.ValueOf(&node{ID: 7}), byID)
	require.True(t, ok)

	vendorID, ok := Identity(reflect.ValueOf(&vendor{ID: 7}), byID)
	require.True(t, ok)
	assert.NotEqual(t, customerID, vendorID)

	r.Register(customerID, targetType, reflect.ValueOf(&node{ID: 70}))

	_, found := r.Lookup(vendorID, targetType)
	assert.False(t, found, "equal identifiers of different source types are distinct objects")

	again, _ := Identity(reflect.ValueOf(&node{ID: 7}), byID)
	_, found = r.Lookup(again, targetType)
	assert.True(t, found)
}

func TestRegistry(t *testing.T) {
	r := New()
	src := &node{ID: 1}
	target := reflect.ValueOf(&node{ID: 2})
	targetType := target.Type()

	id, ok := Identity(reflect.ValueOf(src), nil)
	require.True(t, ok)

	_, found := r.Lookup(id, targetType)
	assert.False(t, found)

	r.Register(id, targetType, target)

	got, found := r.Lookup(id, targetType)
	require.True(t, found)
	assert.Same(t, target.Interface(), got.Interface())

	_, found = r.Lookup(id, reflect.TypeOf(node{}))
	assert.False(t, found, "identity is per target type")
	assert.Equal(t, 1, r.Len())
}
