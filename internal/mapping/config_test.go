package mapping

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	customerType = reflect.TypeOf(Customer{})
	dtoType      = reflect.TypeOf(CustomerDTO{})
	paymentType  = reflect.TypeOf((*Payment)(nil)).Elem()
	cardType     = reflect.TypeOf(Card{})
	dictType     = reflect.TypeOf(map[string]any{})
)

func TestConfig_RevisionBumps(t *testing.T) {
	cfg := NewConfig()
	r0 := cfg.Revision()

	require.NoError(t, cfg.AddIgnore(IgnoreRule{TargetPath: "Name"}))
	assert.Greater(t, cfg.Revision(), r0)
}

func TestConfig_DataSourceFor(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.AddDataSource(DataSourceRule{
		Selector:   Selector{Scope: ScopeTyped},
		TargetPath: "Name",
		SourcePath: "FullName",
	}))
	require.NoError(t, cfg.AddDataSource(DataSourceRule{
		Selector:   Selector{Scope: ScopeTyped, Source: dtoType, Target: customerType},
		TargetPath: "Name",
		SourcePath: "Street",
	}))

	q := Query{Scope: ScopeTyped, Source: dtoType, Target: customerType, RuleSet: CreateNew}

	r, ok := cfg.DataSourceFor(q, "Name")
	require.True(t, ok)
	assert.Equal(t, "Street", r.SourcePath, "exact types are more specific")

	_, ok = cfg.DataSourceFor(Query{Scope: ScopeDictionaries, Source: dictType, Target: customerType}, "Name")
	assert.False(t, ok, "typed rules never apply to dictionary sources")

	err := cfg.AddDataSource(DataSourceRule{TargetPath: "Name"})
	require.ErrorIs(t, err, ErrInvalidRule)

	err = cfg.AddDataSource(DataSourceRule{TargetPath: "Items[]", Value: func(Context) (any, error) { return nil, nil }})
	require.NoError(t, err)

	_, ok = cfg.DataSourceFor(q, "Items[i]")
	assert.True(t, ok, "paths are canonical")
}

func TestConfig_KeysNeverCrossScopes(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.AddKey(KeyRule{Scope: ScopeDictionaries, Object: customerType, Path: "Address.Line1", Key: "addr", Full: true}))

	key, ok := cfg.FullKey(ScopeDictionaries, customerType, CreateNew, "Address.Line1")
	require.True(t, ok)
	assert.Equal(t, "addr", key)

	_, ok = cfg.FullKey(ScopeDynamics, customerType, CreateNew, "Address.Line1")
	assert.False(t, ok)

	_, ok = cfg.MemberKey(ScopeDictionaries, customerType, CreateNew, "Address.Line1")
	assert.False(t, ok)

	require.ErrorIs(t, cfg.AddKey(KeyRule{Scope: ScopeTyped, Path: "Name", Key: "n"}), ErrInvalidRule)
}

func TestConfig_FullKeysBelow(t *testing.T) {
	cfg := NewConfig()

	for _, r := range []KeyRule{
		{Scope: ScopeDictionaries, Object: customerType, Path: "Address.Line1", Key: "old", Full: true},
		{Scope: ScopeDictionaries, Object: customerType, Path: "Address.Line1", Key: "addr", Full: true},
		{Scope: ScopeDictionaries, Object: customerType, Path: "Address.Line2", Key: "line2"},
		{Scope: ScopeDictionaries, Object: customerType, Path: "Address", Key: "home", Full: true},
	} {
		require.NoError(t, cfg.AddKey(r))
	}

	assert.Equal(t, []string{"addr"}, cfg.FullKeysBelow(ScopeDictionaries, customerType, CreateNew, "Address"))
	assert.Equal(t, []string{"home", "addr"}, cfg.FullKeysBelow(ScopeDictionaries, customerType, CreateNew, ""))
	assert.Empty(t, cfg.FullKeysBelow(ScopeDynamics, customerType, CreateNew, "Address"))
	assert.Empty(t, cfg.FullKeysBelow(ScopeDictionaries, customerType, CreateNew, "Address.Line1"))
}

func TestConfig_Naming(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.AddNaming(NamingRule{Scope: ScopeDictionaries, Separator: "-"}))
	cfg.AddSynonyms("Line1", "Street")

	dict := cfg.Naming(ScopeDictionaries, customerType)
	assert.Equal(t, "-", dict.Separator)
	assert.Equal(t, "[i]", dict.ElementPattern)
	assert.Equal(t, []string{"Street"}, dict.Synonyms["line1"])

	dyn := cfg.Naming(ScopeDynamics, customerType)
	assert.Equal(t, "_", dyn.Separator)
	assert.Equal(t, "_i_", dyn.ElementPattern)

	require.Error(t, cfg.AddNaming(NamingRule{Scope: ScopeDynamics, ElementPattern: "[x]"}))
}

func TestConfig_Factories(t *testing.T) {
	cfg := NewConfig()
	factory := func(Context) (any, error) { return &Card{}, nil }

	require.NoError(t, cfg.AddFactory(FactoryRule{Factory: factory}))
	require.NoError(t, cfg.AddFactory(FactoryRule{Selector: Selector{Target: cardType}, Factory: factory, Origin: "exact"}))

	found := cfg.Factories(Query{Scope: ScopeTyped, Target: cardType})
	require.Len(t, found, 2)
	assert.Equal(t, "exact", found[0].Origin)

	require.ErrorIs(t, cfg.AddFactory(FactoryRule{}), ErrInvalidRule)
}

func TestConfig_Derived(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.AddDerived(DerivedRule{
		Selector: Selector{Target: paymentType},
		Concrete: cardType,
		IfKey:    "Number",
	}))

	rules := cfg.DerivedRules(Query{Scope: ScopeDictionaries, Source: dictType, Target: paymentType})
	require.Len(t, rules, 1)
	assert.Equal(t, reflect.PointerTo(cardType), rules[0].Concrete)

	err := cfg.AddDerived(DerivedRule{Selector: Selector{Target: paymentType}, Concrete: customerType, IfKey: "X"})
	require.ErrorIs(t, err, ErrInvalidDerivedRule)

	err = cfg.AddDerived(DerivedRule{Selector: Selector{Target: paymentType}, Concrete: cardType})
	require.ErrorIs(t, err, ErrInvalidDerivedRule)
}

func TestConfig_RemoveOriginAndRulesBelow(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.AddIgnore(IgnoreRule{
		Selector:   Selector{Target: customerType},
		TargetPath: "Address.Line2",
		Origin:     "doc",
	}))

	q := Query{Scope: ScopeTyped, Target: customerType}
	assert.True(t, cfg.HasRulesBelow(q, "Address"))
	assert.False(t, cfg.HasRulesBelow(q, "Tags"))
	assert.True(t, cfg.IsIgnored(q, "Address.Line2"))

	cfg.RemoveOrigin("doc")
	assert.False(t, cfg.IsIgnored(q, "Address.Line2"))
	assert.False(t, cfg.HasRulesBelow(q, "Address"))
}

func TestConfig_Identifier(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.AddIdentifier(IdentifierRule{
		Source: reflect.TypeOf(&Card{}),
		Func:   func(src any) any { return src.(*Card).Number },
	}))

	fn, ok := cfg.Identifier(reflect.TypeOf(&Card{}))
	require.True(t, ok)
	assert.Equal(t, "42", fn(&Card{Number: "42"}))

	_, ok = cfg.Identifier(customerType)
	assert.False(t, ok)
}

func TestConfig_Callbacks(t *testing.T) {
	cfg := NewConfig()

	var calls []string

	require.NoError(t, cfg.AddCallback(CallbackRule{Phase: Before, Func: func(Context) error {
		calls = append(calls, "before")
		return nil
	}}))
	require.NoError(t, cfg.AddCallback(CallbackRule{
		Selector: Selector{RuleSets: []RuleSet{Merge}},
		Phase:    After,
		Func:     func(Context) error { return nil },
	}))

	q := Query{Scope: ScopeTyped, Target: customerType, RuleSet: CreateNew}
	require.Len(t, cfg.Callbacks(q, Before), 1)
	assert.Empty(t, cfg.Callbacks(q, After))

	require.NoError(t, cfg.Callbacks(q, Before)[0](Context{}))
	assert.Equal(t, []string{"before"}, calls)
}
