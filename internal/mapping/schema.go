package mapping

import "errors"

// Document is the root structure of a YAML mapping document.
type Document struct {
	// Version of the mapping schema.
	Version string `yaml:"version"`
	// Dictionaries overrides the key naming of map sources and targets.
	Dictionaries *KeyedSettings `yaml:"dictionaries,omitempty"`
	// Dynamics overrides the key naming of dynamic sources and targets.
	Dynamics *KeyedSettings `yaml:"dynamics,omitempty"`
	// Synonyms lists alternative names tried for a member name.
	Synonyms map[string]StringArray `yaml:"synonyms,omitempty"`
	// Mappings contains the per-type-pair rules.
	Mappings []TypeMapping `yaml:"mappings,omitempty"`
}

// KeyedSettings configures how keys are composed for a keyed scope.
type KeyedSettings struct {
	Separator      string `yaml:"separator,omitempty"`
	ElementPattern string `yaml:"element_pattern,omitempty"`
}

// TypeMapping declares rules for one source/target pair.
// Source names a type; From and To name a keyed scope ("dictionaries" or
// "dynamics") on the source or target side instead.
type TypeMapping struct {
	Source   string      `yaml:"source,omitempty"`
	From     string      `yaml:"from,omitempty"`
	Target   string      `yaml:"target,omitempty"`
	To       string      `yaml:"to,omitempty"`
	RuleSets StringArray `yaml:"rulesets,omitempty"`

	// OneToOne links source member paths to target member paths.
	OneToOne map[string]string `yaml:"121,omitempty"`
	// Ignore lists target member paths left unpopulated.
	Ignore StringArray `yaml:"ignore,omitempty"`
	// FullKeys maps a member path of the typed side to its whole key.
	FullKeys map[string]string `yaml:"full_keys,omitempty"`
	// MemberKeys maps a member path of the typed side to the key used for
	// its own name.
	MemberKeys map[string]string `yaml:"member_keys,omitempty"`
	// Derived lists conditional derived target types, tested in order.
	Derived []DerivedMapping `yaml:"derived,omitempty"`
}

// DerivedMapping maps to Type when the source exposes IfKey.
type DerivedMapping struct {
	IfKey string `yaml:"if_key"`
	Type  string `yaml:"type"`
}

// Label names the pair for diagnostics.
func (tm *TypeMapping) Label() string {
	src := tm.Source
	if src == "" {
		src = tm.From
	}

	dst := tm.Target
	if dst == "" {
		dst = tm.To
	}

	return src + "->" + dst
}

// StringArray is a string slice that can be unmarshaled from a single string or a list.
type StringArray []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringArray) UnmarshalYAML(unmarshal func(any) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var multi []string
	if err := unmarshal(&multi); err == nil {
		*s = multi
		return nil
	}

	return errors.New("expected string or list of strings")
}
