package mapper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-mapper/internal/diagnostic"
	"graph-mapper/mapper"
)

func newMapper(t *testing.T, opts ...mapper.Option) *mapper.Mapper {
	t.Helper()

	m, err := mapper.New(opts...)
	require.NoError(t, err)

	return m
}

func shapeMapper(t *testing.T) *mapper.Mapper {
	t.Helper()

	return newMapper(t, mapper.WithTypes(Circle{}, Square{}))
}

func TestMap_Objects(t *testing.T) {
	m := newMapper(t)

	src := &Person{Name: "Ada", Age: 36, Address: &Address{Line1: "1 Analytical Way"}, Tags: []string{"math"}}

	dto, err := mapper.Map[*PersonDTO](m, src)
	require.NoError(t, err)
	require.NotNil(t, dto, spew.Sdump(src))

	assert.Equal(t, "Ada", dto.Name)
	assert.Equal(t, "36", dto.Age)
	require.NotNil(t, dto.Address)
	assert.Equal(t, "1 Analytical Way", dto.Address.Line1)
	assert.Equal(t, []string{"math"}, dto.Tags)

	src.Tags[0] = "changed"
	assert.Equal(t, "math", dto.Tags[0], "collections are copied")
}

func TestMap_NilSource(t *testing.T) {
	m := newMapper(t)

	dto, err := mapper.Map[*PersonDTO](m, nil)
	require.NoError(t, err)
	assert.Nil(t, dto)

	dto, err = mapper.Map[*PersonDTO](m, (*Person)(nil))
	require.NoError(t, err)
	assert.Nil(t, dto)

	existing := &PersonDTO{Name: "kept"}
	out, err := mapper.MapOnTo(m, nil, existing)
	require.NoError(t, err)
	assert.Same(t, existing, out)
}

func TestMapOnTo_FillsZeroMembersAndAppends(t *testing.T) {
	m := newMapper(t)

	existing := &PersonDTO{Name: "Kept", Tags: []string{"a"}}
	src := &Person{Name: "Ada", Age: 36, Tags: []string{"b"}}

	out, err := mapper.MapOnTo(m, src, existing)
	require.NoError(t, err)
	assert.Same(t, existing, out)

	assert.Equal(t, "Kept", out.Name, "set members are kept")
	assert.Equal(t, "36", out.Age)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
}

func TestMapOver_ReplacesMembers(t *testing.T) {
	m := newMapper(t)

	existing := &PersonDTO{Name: "Old", Nickname: "nick", Tags: []string{"a", "b", "c"}}
	src := &Person{Name: "New", Tags: []string{"x"}}

	out, err := mapper.MapOver(m, src, existing)
	require.NoError(t, err)
	assert.Same(t, existing, out)

	assert.Equal(t, "New", out.Name)
	assert.Empty(t, out.Nickname, "members without a source are reset")
	assert.Nil(t, out.Address)
	assert.Equal(t, []string{"x"}, out.Tags)
}

func TestMap_FromDictionary(t *testing.T) {
	tests := []struct {
		name      string
		configure func(m *mapper.Mapper) error
		source    any
		expected  string
	}{
		{
			name:     "default separator",
			source:   map[string]any{"Value.Line1": "1 Road"},
			expected: "1 Road",
		},
		{
			name:     "flattened key",
			source:   map[string]any{"ValueLine1": "1 Road"},
			expected: "1 Road",
		},
		{
			name: "custom separator",
			configure: func(m *mapper.Mapper) error {
				return m.Dictionaries().UseSeparator("-").Err()
			},
			source:   map[string]any{"Value-Line1": "1 Road"},
			expected: "1 Road",
		},
		{
			name: "nested value under the member key",
			source: map[string]any{
				"Value": map[string]any{"Line1": "1 Road"},
			},
			expected: "1 Road",
		},
		{
			name: "full key",
			configure: func(m *mapper.Mapper) error {
				return m.Dictionaries().For(reflect.TypeOf(&AddressDTO{})).MapFullKey("Line1", "Value.street").Err()
			},
			source:   map[string]any{"Value.street": "1 Road"},
			expected: "1 Road",
		},
		{
			name: "member name",
			configure: func(m *mapper.Mapper) error {
				return m.Dictionaries().For(reflect.TypeOf(&AddressDTO{})).MapMemberName("Line1", "street").Err()
			},
			source:   map[string]any{"Value.street": "1 Road"},
			expected: "1 Road",
		},
		{
			name: "full key of a deeper member",
			configure: func(m *mapper.Mapper) error {
				return m.Dictionaries().For(reflect.TypeOf(&Holder{})).MapFullKey("Value.Line1", "L1Key").Err()
			},
			source:   map[string]any{"L1Key": "dict"},
			expected: "dict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMapper(t)
			if tt.configure != nil {
				require.NoError(t, tt.configure(m))
			}

			h, err := mapper.Map[*Holder](m, tt.source)
			require.NoError(t, err)
			require.NotNil(t, h)
			require.NotNil(t, h.Value, spew.Sdump(tt.source))
			assert.Equal(t, tt.expected, h.Value.Line1)
		})
	}
}

func TestMap_KeyedConfigurationDoesNotCrossApply(t *testing.T) {
	m := newMapper(t)
	require.NoError(t, m.Dictionaries().UseSeparator("-").Err())

	line1 := func(h *Holder) string {
		if h == nil || h.Value == nil {
			return ""
		}

		return h.Value.Line1
	}

	dashed := mapper.NewExpando()
	dashed.Set("Value-Line1", "dashed")

	h, err := mapper.Map[*Holder](m, dashed)
	require.NoError(t, err)
	assert.Empty(t, line1(h), "dictionary separators do not apply to dynamics")

	underscored := mapper.NewExpando()
	underscored.Set("Value_Line1", "underscored")

	h, err = mapper.Map[*Holder](m, underscored)
	require.NoError(t, err)
	assert.Equal(t, "underscored", line1(h))
}

func TestMap_ElementKeysIntoList(t *testing.T) {
	m := newMapper(t)

	bag, err := mapper.Map[*Bag](m, map[string]any{
		"Value[0]": "a",
		"Value[1]": "b",
		"Value[2]": "c",
		"Other":    "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, bag.Value)

	lines, err := mapper.Map[*Lines](m, map[string]any{
		"Value[0].Line1": "first",
		"Value[1].Line1": "second",
	})
	require.NoError(t, err)
	require.Len(t, lines.Value, 2, spew.Sdump(lines))
	assert.Equal(t, "first", lines.Value[0].Line1)
	assert.Equal(t, "second", lines.Value[1].Line1)
}

func TestMap_ElementPattern(t *testing.T) {
	m := newMapper(t)
	require.ErrorIs(t, m.Dynamics().UseElementPattern("[x]").Err(), mapper.ErrInvalidElementPattern)
	require.NoError(t, m.Dynamics().UseElementPattern("(i)").Err())

	e := mapper.NewExpando()
	e.Set("Value(0)", "a")
	e.Set("Value(1)", "b")

	bag, err := mapper.Map[*Bag](m, e)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, bag.Value)
}

func TestMap_IntKeyedDictionaryIsSkipped(t *testing.T) {
	m := newMapper(t)

	out, err := mapper.Map[*Index](m, &Index{Lookup: map[int]string{1: "one"}, Name: "idx"})
	require.NoError(t, err)
	assert.Equal(t, "idx", out.Name)
	assert.Nil(t, out.Lookup)

	lookup, err := mapper.Map[map[int]string](m, map[string]any{"1": "one"})
	require.NoError(t, err)
	assert.Nil(t, lookup)

	p, err := m.GetOrBuild(reflect.TypeOf(&Index{}), reflect.TypeOf(&Index{}), mapper.CreateNew)
	require.NoError(t, err)

	diags := p.Diagnostics()
	assert.Len(t, diags.ByCode(diagnostic.CodeUnsupportedKey), 1)
}

func TestMap_CycleMapsToOneTarget(t *testing.T) {
	m := newMapper(t)

	a := &Node{Name: "a"}
	a.Next = a

	dto, err := mapper.Map[*NodeDTO](m, a)
	require.NoError(t, err)
	assert.Equal(t, "a", dto.Name)
	assert.Same(t, dto, dto.Next)

	b := &Node{Name: "b", Next: &Node{Name: "c", Next: a}}

	dto, err = mapper.Map[*NodeDTO](m, b)
	require.NoError(t, err)
	assert.Equal(t, "c", dto.Next.Name)
	assert.Equal(t, "a", dto.Next.Next.Name)
	assert.Same(t, dto.Next.Next, dto.Next.Next.Next)
}

func TestMap_IdentifiedSourcesShareTarget(t *testing.T) {
	m := newMapper(t)

	first := &Customer{ID: 7, Name: "Ada"}
	copied := &Customer{ID: 7, Name: "Ada"}
	other := &Customer{ID: 8, Name: "Grace"}

	out, err := mapper.Map[*LedgerDTO](m, &Ledger{Customers: []*Customer{first, copied, other}})
	require.NoError(t, err)
	require.Len(t, out.Customers, 3)
	assert.NotSame(t, out.Customers[0], out.Customers[1])

	require.NoError(t, m.IdentifyUsing(reflect.TypeOf(&Customer{}), func(source any) any {
		return source.(*Customer).ID
	}))

	out, err = mapper.Map[*LedgerDTO](m, &Ledger{Customers: []*Customer{first, copied, other}})
	require.NoError(t, err)
	require.Len(t, out.Customers, 3)
	assert.Same(t, out.Customers[0], out.Customers[1])
	assert.NotSame(t, out.Customers[0], out.Customers[2])
}

func TestMap_DerivedTypes(t *testing.T) {
	tests := []struct {
		name     string
		source   any
		expected Shape
	}{
		{"circle keys", map[string]any{"Radius": 2.0}, &Circle{Radius: 2}},
		{"square keys", map[string]any{"Side": 3.0}, &Square{Side: 3}},
		{"same concrete type", &Square{Side: 4}, &Square{Side: 4}},
		{"typed source with a distinguishing member", &Circle{Radius: 1}, &Circle{Radius: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := shapeMapper(t)

			s, err := mapper.Map[Shape](m, tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s, spew.Sdump(tt.source))
		})
	}
}

func TestMap_DerivedTypeWithoutMatch(t *testing.T) {
	m := shapeMapper(t)

	s, err := mapper.Map[Shape](m, map[string]any{"Colour": "red"})
	require.NoError(t, err)
	assert.Nil(t, s)

	p, err := m.GetOrBuild(reflect.TypeOf(map[string]any{}), reflect.TypeFor[Shape](), mapper.CreateNew)
	require.NoError(t, err)
	assert.Contains(t, p.String(), "dispatch")
}

func TestMap_ConfiguredDerivedRulesInDeclaredOrder(t *testing.T) {
	circle, square := reflect.TypeOf(&Circle{}), reflect.TypeOf(&Square{})

	tests := []struct {
		name     string
		order    []reflect.Type
		expected reflect.Type
	}{
		{"circle first", []reflect.Type{circle, square}, circle},
		{"square first", []reflect.Type{square, circle}, square},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := shapeMapper(t)

			rules := mapper.When[map[string]any, Shape](m)
			for _, concrete := range tt.order {
				rules.MapToDerivedIfKey("Kind", concrete)
			}

			require.NoError(t, rules.Err())

			s, err := mapper.Map[Shape](m, map[string]any{"Kind": "any", "Side": 2.0})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reflect.TypeOf(s))
		})
	}
}

func TestMap_DerivedPredicate(t *testing.T) {
	m := shapeMapper(t)

	rules := mapper.When[*Square, Shape](m).MapToDerivedWhen(func(ctx mapper.Context) bool {
		return ctx.Source.(*Square).Side < 0
	}, reflect.TypeOf(&Circle{}))
	require.NoError(t, rules.Err())

	s, err := mapper.Map[Shape](m, &Square{Side: -1})
	require.NoError(t, err)
	assert.IsType(t, &Circle{}, s)

	s, err = mapper.Map[Shape](m, &Square{Side: 1})
	require.NoError(t, err)
	assert.Equal(t, &Square{Side: 1}, s)
}

func TestMap_InvalidDerivedRules(t *testing.T) {
	m := shapeMapper(t)

	err := mapper.When[*Square, Shape](m).MapToDerivedIfKey("Side", reflect.TypeOf(&Person{})).Err()
	require.ErrorIs(t, err, mapper.ErrInvalidDerivedRule)

	require.NoError(t, mapper.When[*Circle, *Circle](m).MapToDerivedIfKey("Radius", reflect.TypeOf(&Circle{})).Err())

	_, err = mapper.Map[*Circle](m, &Circle{Radius: 1})
	require.ErrorIs(t, err, mapper.ErrInvalidDerivedRule)
}

func TestMap_NestedBuildErrorsReachCaller(t *testing.T) {
	m := newMapper(t)

	factory := func(mapper.Context) (any, error) { return &InnerDTO{}, nil }

	rules := mapper.When[*Inner, *InnerDTO](m).CreateUsing(factory).CreateUsing(factory)
	require.NoError(t, rules.Err())

	_, err := mapper.Map[*OuterDTO](m, &Outer{Inner: &Inner{Code: "x"}})
	require.ErrorIs(t, err, mapper.ErrAmbiguousConstruction)

	p, err := m.GetOrBuild(reflect.TypeOf(&Outer{}), reflect.TypeOf(&OuterDTO{}), mapper.CreateNew)
	require.ErrorIs(t, err, mapper.ErrAmbiguousConstruction, "the failed build is not cached")
	assert.Nil(t, p)

	_, err = mapper.Map[*OuterDTO](m, &Outer{})
	require.ErrorIs(t, err, mapper.ErrAmbiguousConstruction)
}

func TestRules(t *testing.T) {
	t.Run("source path", func(t *testing.T) {
		m := newMapper(t)
		require.NoError(t, mapper.When[*Person, *PersonDTO](m).Map("Name", "Nickname").Err())

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", dto.Nickname)
		assert.Equal(t, "Ada", dto.Name)
	})

	t.Run("function", func(t *testing.T) {
		m := newMapper(t)
		rules := mapper.When[*Person, *PersonDTO](m).MapFunc("Nickname", func(ctx mapper.Context) (any, error) {
			return "the " + ctx.Source.(*Person).Name, nil
		})
		require.NoError(t, rules.Err())

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "the Ada", dto.Nickname)
	})

	t.Run("function error", func(t *testing.T) {
		m := newMapper(t)
		boom := errors.New("boom")
		rules := mapper.When[*Person, *PersonDTO](m).MapFunc("Nickname", func(mapper.Context) (any, error) {
			return nil, boom
		})
		require.NoError(t, rules.Err())

		_, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "Nickname")
	})

	t.Run("ignore", func(t *testing.T) {
		m := newMapper(t)
		require.NoError(t, mapper.When[*Person, *PersonDTO](m).Ignore("Name", "Address.Line1").Err())

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada", Address: &Address{Line1: "1", Line2: "2"}})
		require.NoError(t, err)
		assert.Empty(t, dto.Name)
		require.NotNil(t, dto.Address)
		assert.Empty(t, dto.Address.Line1)
		assert.Equal(t, "2", dto.Address.Line2)
	})

	t.Run("rule sets", func(t *testing.T) {
		m := newMapper(t)
		require.NoError(t, mapper.When[*Person, *PersonDTO](m).For(mapper.Merge).Ignore("Name").Err())

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", dto.Name)

		dto, err = mapper.MapOnTo(m, &Person{Name: "Ada"}, &PersonDTO{})
		require.NoError(t, err)
		assert.Empty(t, dto.Name)
	})

	t.Run("synonyms", func(t *testing.T) {
		m := newMapper(t)
		m.AddSynonyms("Nickname", "Name")

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "Ada", dto.Nickname)
	})

	t.Run("factory and callbacks", func(t *testing.T) {
		m := newMapper(t)

		var calls []string

		rules := mapper.When[*Person, *PersonDTO](m).
			CreateUsing(func(mapper.Context) (any, error) {
				calls = append(calls, "create")
				return &PersonDTO{Nickname: "from factory"}, nil
			}).
			Before(func(ctx mapper.Context) error {
				calls = append(calls, "before")
				return nil
			}).
			After(func(ctx mapper.Context) error {
				calls = append(calls, "after:"+ctx.Target.(*PersonDTO).Nickname)
				return nil
			})
		require.NoError(t, rules.Err())

		dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "from factory", dto.Nickname)
		assert.Equal(t, "Ada", dto.Name)
		assert.Equal(t, []string{"before", "create", "after:from factory"}, calls)
	})
}

func TestFlatten(t *testing.T) {
	m := newMapper(t)

	flat, err := mapper.Flatten(m, &Order{ID: 1, Items: []Item{{Name: "pen", Qty: 2}, {Name: "ink", Qty: 1}}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"ID":            1,
		"Items[0].Name": "pen",
		"Items[0].Qty":  2,
		"Items[1].Name": "ink",
		"Items[1].Qty":  1,
	}, flat)

	flat, err = mapper.Flatten(m, &Person{Name: "Ada", Address: &Address{Line1: "1 Road"}, Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "1 Road", flat["Address.Line1"], spew.Sdump(flat))
	assert.Equal(t, "a", flat["Tags[0]"])
	assert.Equal(t, "Ada", flat["Name"])
}

func TestMap_ToDynamic(t *testing.T) {
	m := newMapper(t)

	e, err := mapper.Map[*mapper.Expando](m, &Person{Name: "Ada", Address: &Address{Line1: "1 Road"}})
	require.NoError(t, err)

	v, ok := e.TryGetValue("Address_Line1")
	require.True(t, ok, spew.Sdump(e.Keys()))
	assert.Equal(t, "1 Road", v)

	keys := e.Keys()
	assert.Equal(t, "Name", keys[0], "members keep declaration order")
}

func TestMap_FlattenedRoundTrip(t *testing.T) {
	m := newMapper(t)

	src := &Order{ID: 4, Items: []Item{{Name: "pen", Qty: 2}}}

	flat, err := mapper.Flatten(m, src)
	require.NoError(t, err)

	back, err := mapper.Map[*Order](m, flat)
	require.NoError(t, err)
	assert.Equal(t, src, back)
}

func TestGetOrBuild_ReusesPlans(t *testing.T) {
	m := newMapper(t)
	src, dst := reflect.TypeOf(&Person{}), reflect.TypeOf(&PersonDTO{})

	first, err := m.GetOrBuild(src, dst, mapper.CreateNew)
	require.NoError(t, err)

	second, err := m.GetOrBuild(src, dst, mapper.CreateNew)
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
	assert.Same(t, first.Compiled(), second.Compiled(), "one compiled plan per source, target and rule set")

	require.NoError(t, mapper.When[*Person, *PersonDTO](m).Ignore("Name").Err())

	third, err := m.GetOrBuild(src, dst, mapper.CreateNew)
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint(), third.Fingerprint(), third.String())
	assert.Contains(t, third.String(), "Name: ignored")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mapping.yaml")

	write := func(doc string) {
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	}

	m := newMapper(t, mapper.WithTypes(Person{}, PersonDTO{}))

	write(`
mappings:
  - source: Person
    target: PersonDTO
    121:
      Name: Nickname
`)
	require.NoError(t, m.LoadConfig(context.Background(), path))

	dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", dto.Nickname)

	require.NoError(t, m.LoadConfig(context.Background(), path), "unchanged documents reload as a no-op")

	write(`
mappings:
  - source: Person
    target: PersonDTO
    ignore: Name
`)
	require.NoError(t, m.LoadConfig(context.Background(), path))

	dto, err = mapper.Map[*PersonDTO](m, &Person{Name: "Ada"})
	require.NoError(t, err)
	assert.Empty(t, dto.Nickname, "rules of the previous document are replaced")
	assert.Empty(t, dto.Name)

	write("mappings: {")
	require.Error(t, m.LoadConfig(context.Background(), path))
}

func TestAddTypeLoader_PartialLoad(t *testing.T) {
	m := newMapper(t)

	n := m.AddTypeLoader("generated", func() ([]reflect.Type, error) {
		return []reflect.Type{reflect.TypeOf(Circle{})}, errors.New("square failed to load")
	})
	assert.Equal(t, 1, n)

	diags := m.Diagnostics()
	require.Len(t, diags.ByCode(diagnostic.CodePartialCatalog), 1)

	s, err := mapper.Map[Shape](m, map[string]any{"Radius": 1.0})
	require.NoError(t, err)
	assert.Equal(t, &Circle{Radius: 1}, s)
}

func TestWithCaster(t *testing.T) {
	m := newMapper(t, mapper.WithCaster(func(a *Address) *AddressDTO {
		return &AddressDTO{Line1: a.Line1 + ", " + a.Line2}
	}))

	dto, err := mapper.Map[*PersonDTO](m, &Person{Address: &Address{Line1: "1 Road", Line2: "Town"}})
	require.NoError(t, err)
	require.NotNil(t, dto.Address)
	assert.Equal(t, "1 Road, Town", dto.Address.Line1)

	_, err = mapper.New(mapper.WithCaster("not a func"))
	require.Error(t, err)
}

func TestMapper_Concurrent(t *testing.T) {
	m := newMapper(t)

	errs := make(chan error, 8)

	for i := range 8 {
		go func() {
			dto, err := mapper.Map[*PersonDTO](m, &Person{Name: "Ada", Age: i})
			if err == nil && dto.Name != "Ada" {
				err = errors.New("unexpected name " + dto.Name)
			}

			errs <- err
		}()
	}

	var got []string

	for range 8 {
		if err := <-errs; err != nil {
			got = append(got, err.Error())
		}
	}

	sort.Strings(got)
	assert.Empty(t, got)
}
