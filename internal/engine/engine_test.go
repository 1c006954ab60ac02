package engine

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-mapper/internal/construct"
	"graph-mapper/internal/mapping"
)

type line struct {
	Text string
}

type page struct {
	Title string
	Lines []*line
}

type lineView struct {
	Text string
}

type pageView struct {
	Title string
	Lines []*lineView
}

var (
	pageType     = reflect.TypeOf(&page{})
	pageViewType = reflect.TypeOf(&pageView{})
)

func TestGetOrBuild_Memoizes(t *testing.T) {
	e := New(Options{})

	first, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.CreateNew))
	require.NoError(t, err)

	second, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.CreateNew))
	require.NoError(t, err)
	assert.Same(t, first, second)

	// the page plan, the lines plan and the line plan
	assert.Equal(t, 3, e.Plans())

	merge, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.Merge))
	require.NoError(t, err)
	assert.NotSame(t, first, merge, "rule sets have plans of their own")
}

func TestGetOrBuild_RevisionPurgesPlans(t *testing.T) {
	cfg := mapping.NewConfig()
	e := New(Options{Config: cfg})

	first, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.CreateNew))
	require.NoError(t, err)

	cfg.AddSynonyms("Title", "Heading")

	key := e.Key(pageType, pageViewType, mapping.CreateNew)
	assert.Equal(t, 0, e.Plans())

	second, err := e.GetOrBuild(key)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestGetOrBuild_NestedErrors(t *testing.T) {
	cfg := mapping.NewConfig()
	factory := func(mapping.Context) (any, error) { return &lineView{}, nil }

	for range 2 {
		require.NoError(t, cfg.AddFactory(mapping.FactoryRule{
			Selector: mapping.Selector{Target: reflect.TypeOf(&lineView{})},
			Factory:  factory,
		}))
	}

	e := New(Options{Config: cfg})

	for range 2 {
		c, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.CreateNew))
		require.ErrorIs(t, err, construct.ErrAmbiguousConstruction)
		assert.Contains(t, err.Error(), "*engine.page -> *engine.pageView")
		assert.Nil(t, c)
	}

	_, cached := e.plans.Get(e.Key(pageType, pageViewType, mapping.CreateNew))
	assert.False(t, cached, "a plan with failing nested plans is not kept")
}

func TestCompiled_Map(t *testing.T) {
	e := New(Options{})

	c, err := e.GetOrBuild(e.Key(pageType, pageViewType, mapping.CreateNew))
	require.NoError(t, err)

	out, err := c.Map(&page{Title: "intro", Lines: []*line{{Text: "a"}, nil, {Text: "b"}}}, nil, nil)
	require.NoError(t, err)

	view := out.(*pageView)
	assert.Equal(t, "intro", view.Title)
	require.Len(t, view.Lines, 3)
	assert.Equal(t, "a", view.Lines[0].Text)
	assert.Nil(t, view.Lines[1])
	assert.Equal(t, "b", view.Lines[2].Text)

	index := 4
	out, err = c.Map(&page{Title: "indexed"}, nil, &index)
	require.NoError(t, err)
	assert.Equal(t, "indexed", out.(*pageView).Title)
}
