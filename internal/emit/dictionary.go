package emit

import (
	"reflect"
	"strings"

	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/plan"
	"graph-mapper/internal/registry"
)

// entryWriter stores dictionary entries of one plan.
type entryWriter struct {
	l     *lowering
	merge bool
}

func (l *lowering) writer() entryWriter {
	return entryWriter{l: l, merge: l.key.RuleSet == mapping.Merge}
}

// put stores value under key. Merging keeps entries already present.
func (w entryWriter) put(f *Frame, key string, value reflect.Value) error {
	if d, ok := asDynamic(f.target); ok {
		if _, exists := d.TryGetValue(key); exists && w.merge {
			return nil
		}

		d.Set(key, valueOrNil(unwrap(value)))

		return nil
	}

	m, ok := asMap(f.target)
	if !ok {
		return ErrNotAssignable
	}

	k := reflect.ValueOf(key)
	if m.Type().Key().Kind() == reflect.String {
		k = k.Convert(m.Type().Key())
	}

	if w.merge && m.MapIndex(k).IsValid() {
		return nil
	}

	v, err := coerce(value, m.Type().Elem())
	if err != nil {
		return err
	}

	m.SetMapIndex(k, v)

	return nil
}

// flatten writes the members of value below prefix with the plan mapping
// its type onto the dictionary. Sources met again on the way are skipped.
func (w entryWriter) flatten(f *Frame, prefix string, value reflect.Value) error {
	value = unwrap(value)
	if isNil(value) {
		return nil
	}

	if !isNested(value.Type()) {
		return w.put(f, prefix, value)
	}

	if id, ok := registry.Identity(value, nil); ok {
		if f.Call.flattening[id] {
			return nil
		}

		f.Call.flattening[id] = true
		defer delete(f.Call.flattening, id)
	}

	exec, err := w.l.links.get(w.l.key.Nested(value.Type(), w.l.key.Target, datasource.Position{}))
	if err != nil {
		return err
	}

	c := f.child(value, f.target, "["+prefix+"]")
	c.TargetPrefix = prefix

	_, err = exec(c)

	return err
}

func (l *lowering) clone(op *plan.Clone) (opFunc, error) {
	value, err := l.expr(op.Value)
	if err != nil {
		return nil, err
	}

	w := l.writer()

	return func(f *Frame) (bool, error) {
		source, ok := asMap(f.Source)
		if !ok {
			return false, nil
		}

		iter := source.MapRange()
		for iter.Next() {
			key := keyString(iter.Key())
			path := f.DisplayPath() + "[" + key + "]"

			f.element, f.hasElement = iter.Value(), true

			v, ok, err := value(f)
			if err != nil {
				return false, wrap(path, err)
			}

			if !ok {
				continue
			}

			if err := w.put(f, prefixed(f, key), v); err != nil {
				return false, wrap(path, err)
			}
		}

		f.element, f.hasElement = reflect.Value{}, false

		return false, nil
	}, nil
}

// prefixed composes a cloned key written below the frame's target prefix.
func prefixed(f *Frame, key string) string {
	return match.DictionaryDefaults().Join(f.TargetPrefix, key)
}

func (l *lowering) entries(op *plan.Entries) (opFunc, error) {
	value, err := l.expr(op.Value)
	if err != nil {
		return nil, err
	}

	w := l.writer()
	sourceSettings, targetSettings := op.Source, op.Target
	flatten := op.Flatten

	write := func(f *Frame, key string, element reflect.Value) error {
		f.element, f.hasElement = element, true
		defer func() { f.element, f.hasElement = reflect.Value{}, false }()

		if flatten {
			return w.flatten(f, key, element)
		}

		v, ok, err := value(f)
		if err != nil || !ok {
			return err
		}

		return w.put(f, key, v)
	}

	if op.From == plan.FromElements {
		return func(f *Frame) (bool, error) {
			source := derefValue(unwrap(f.Source))
			if !source.IsValid() || (source.Kind() != reflect.Slice && source.Kind() != reflect.Array) {
				return false, nil
			}

			for i := range source.Len() {
				key := targetSettings.ElementKey(f.TargetPrefix, i)
				if err := write(f, key, source.Index(i)); err != nil {
					return false, wrap(f.DisplayPath()+"["+key+"]", err)
				}
			}

			return false, nil
		}, nil
	}

	return func(f *Frame) (bool, error) {
		for _, key := range f.sourceKeys() {
			rest, ok := below(key, f.Prefixes, sourceSettings)
			if !ok {
				continue
			}

			element, _ := keyedGet(f.Source, key)
			target := targetSettings.Join(f.TargetPrefix, rest)

			if err := write(f, target, element); err != nil {
				return false, wrap(f.DisplayPath()+"["+target+"]", err)
			}
		}

		return false, nil
	}, nil
}

// below returns the part of key under the first matching prefix.
func below(key string, prefixes []string, settings match.Settings) (string, bool) {
	for _, p := range prefixes {
		if p == "" {
			return key, true
		}

		if len(key) <= len(p) || !strings.EqualFold(key[:len(p)], p) {
			continue
		}

		rest := strings.TrimPrefix(key[len(p):], settings.Separator)
		if rest != "" {
			return rest, true
		}
	}

	return "", false
}

func (l *lowering) setEntry(op *plan.SetEntry) (opFunc, error) {
	value, err := l.expr(op.Value)
	if err != nil {
		return nil, err
	}

	w := l.writer()
	entry := *op

	return func(f *Frame) (bool, error) {
		key := entry.Key
		if !entry.Full {
			key = entry.Settings.Join(f.TargetPrefix, entry.Key)
		}

		path := f.DisplayPath() + "[" + key + "]"

		v, ok, err := value(f)
		if err != nil {
			return false, wrap(path, err)
		}

		if !ok {
			return false, nil
		}

		if entry.Flatten {
			err = w.flatten(f, key, v)
		} else {
			err = w.put(f, key, v)
		}

		return false, wrap(path, err)
	}, nil
}

func derefValue(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}

		v = v.Elem()
	}

	return v
}
