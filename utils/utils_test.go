package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInRange(t *testing.T) {
	assert.True(t, IsInRange(1, 1, 3))
	assert.True(t, IsInRange(1, 3, 3))
	assert.False(t, IsInRange(1, 4, 3))
	assert.False(t, IsInRange(math.MinInt64, math.NaN(), math.MaxUint64))
	assert.False(t, IsInRange(math.MinInt64, math.Inf(-1), math.MaxUint64))
}

func TestUnpack2(t *testing.T) {
	first, second := Unpack2([]string{"store", "Order", "extra"})
	assert.Equal(t, "store", first)
	assert.Equal(t, "Order", second)

	first, second = Unpack2([]string{"main"})
	assert.Equal(t, "main", first)
	assert.Empty(t, second)

	first, second = Unpack2([]string(nil))
	assert.Empty(t, first)
	assert.Empty(t, second)
}

func TestSecond(t *testing.T) {
	assert.Equal(t, "caster.go", Second("internal/", "caster.go"))
}
