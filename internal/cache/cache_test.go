package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type key struct {
	Source, Target string
}

func TestCache_BuildsOncePerKey(t *testing.T) {
	c := New[key, *int]()

	var builds atomic.Int32

	start := make(chan struct{})
	build := func() (*int, error) {
		builds.Add(1)
		<-start

		v := 42

		return &v, nil
	}

	const callers = 16

	var wg sync.WaitGroup

	results := make([]*int, callers)

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, _, err := c.GetOrBuild(key{"A", "B"}, build)
			assert.NoError(t, err)

			results[i] = v
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())

	for _, r := range results {
		assert.Same(t, results[0], r)
	}

	v, hit, err := c.GetOrBuild(key{"A", "B"}, build)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, results[0], v)
}

func TestCache_FailuresAreNotStored(t *testing.T) {
	c := New[key, string]()
	boom := errors.New("boom")

	_, _, err := c.GetOrBuild(key{"A", "B"}, func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, hit, err := c.GetOrBuild(key{"A", "B"}, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit, "a failed build is retried")
	assert.Equal(t, "ok", v)
}

func TestCache_KeysAreComparedByValue(t *testing.T) {
	c := New[key, string]()

	_, _, err := c.GetOrBuild(key{"A", "B"}, func() (string, error) { return "ab", nil })
	require.NoError(t, err)

	v, hit, err := c.GetOrBuild(key{"A", "C"}, func() (string, error) { return "ac", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ac", v)

	c.Purge()

	_, ok := c.Get(key{"A", "B"})
	assert.False(t, ok)
}

func TestCache_DeleteAndPurgeForgetKeys(t *testing.T) {
	c := New[key, string]()

	for _, k := range []key{{"A", "B"}, {"A", "C"}} {
		_, _, err := c.GetOrBuild(k, func() (string, error) { return k.Target, nil })
		require.NoError(t, err)
	}

	assert.Len(t, c.ids, 2)

	c.Delete(key{"A", "B"})
	assert.Equal(t, 1, c.Len())
	assert.Len(t, c.ids, 1)

	v, hit, err := c.GetOrBuild(key{"A", "B"}, func() (string, error) { return "rebuilt", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "rebuilt", v)

	assert.NotEqual(t, c.id(key{"A", "B"}), c.id(key{"A", "C"}))

	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.ids)

	// ids handed out before a purge are not reused.
	assert.Equal(t, "3", c.id(key{"X", "Y"}))
}
