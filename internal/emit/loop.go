package emit

import (
	"reflect"
	"strconv"

	"graph-mapper/internal/datasource"
	"graph-mapper/internal/mapping"
	"graph-mapper/internal/match"
	"graph-mapper/internal/plan"
)

// cursor yields the elements of a loop source. ok is false when the source
// is exhausted; present is false for an element position with no value.
type cursor func(i int) (element reflect.Value, present, ok bool)

func (l *lowering) loop(op *plan.Loop) (opFunc, error) {
	element, err := l.expr(op.Element)
	if err != nil {
		return nil, err
	}

	open := l.cursor(op)
	rs, fixed := l.key.RuleSet, op.Fixed

	return func(f *Frame) (bool, error) {
		coll := derefValue(f.target)
		if !coll.IsValid() {
			return false, nil
		}

		existing := 0
		if coll.Kind() == reflect.Slice {
			existing = coll.Len()
			if rs == mapping.CreateNew {
				coll.SetLen(0)
			}
		}

		defer func() {
			f.element, f.hasElement, f.elementPrefixes, f.slot = reflect.Value{}, false, nil, reflect.Value{}
		}()

		index, hasIndex := f.Index, f.HasIndex
		defer func() { f.Index, f.HasIndex = index, hasIndex }()

		next := open(f)
		count := 0

		for i := 0; fixed < 0 || i < fixed; i++ {
			v, present, ok := next(i)
			if !ok {
				break
			}

			f.element, f.hasElement = v, present
			f.Index, f.HasIndex = i, true
			f.slot = reflect.Value{}

			pos := i
			if rs == mapping.Merge && coll.Kind() == reflect.Slice {
				pos = existing + i
			}

			if rs == mapping.Overwrite && pos < existing {
				f.slot = coll.Index(pos)
			}

			out, found, err := element(f)
			if err != nil {
				return false, wrap(f.DisplayPath()+"["+strconv.Itoa(i)+"]", err)
			}

			if !found {
				out = reflect.Value{}
			}

			if err := store(coll, pos, out); err != nil {
				return false, wrap(f.DisplayPath()+"["+strconv.Itoa(i)+"]", err)
			}

			count++
		}

		if rs == mapping.Overwrite && coll.Kind() == reflect.Slice && count < existing {
			coll.SetLen(count)
		}

		return false, nil
	}, nil
}

// store writes v at position pos of a slice or array, growing slices.
func store(coll reflect.Value, pos int, v reflect.Value) error {
	v, err := coerce(v, coll.Type().Elem())
	if err != nil {
		return err
	}

	if coll.Kind() == reflect.Array || pos < coll.Len() {
		coll.Index(pos).Set(v)
		return nil
	}

	coll.Set(reflect.Append(coll, v))

	return nil
}

// cursor returns the function opening the loop source of a frame.
func (l *lowering) cursor(op *plan.Loop) func(*Frame) cursor {
	switch op.Kind {
	case plan.LoopKeyed:
		return keyedCursor(op)
	case plan.LoopEntries:
		return func(f *Frame) cursor {
			var values []reflect.Value
			if m, ok := asMap(f.Source); ok {
				values = sortedEntries(m)
			}

			return func(i int) (reflect.Value, bool, bool) {
				if i >= len(values) {
					return reflect.Value{}, false, false
				}

				return values[i], true, true
			}
		}
	default:
		return func(f *Frame) cursor {
			source := derefValue(unwrap(f.Source))
			if source.IsValid() && source.Kind() != reflect.Slice && source.Kind() != reflect.Array {
				source = reflect.Value{}
			}

			return func(i int) (reflect.Value, bool, bool) {
				if !source.IsValid() || i >= source.Len() {
					return reflect.Value{}, false, false
				}

				return source.Index(i), true, true
			}
		}
	}
}

// keyedCursor walks element keys: an exact element key holds the element,
// keys below it hold the members of a nested element.
func keyedCursor(op *plan.Loop) func(*Frame) cursor {
	settings := op.Settings
	mc, nested := op.Element.(*datasource.MapCall)
	nested = nested && mc.Keyed != nil

	return func(f *Frame) cursor {
		keys := f.sourceKeys()

		return func(i int) (reflect.Value, bool, bool) {
			prefixes := settings.ElementPrefixes(f.Prefixes, i)
			f.elementPrefixes = prefixes

			if key, ok := match.FindKey(keys, prefixes); ok {
				v, found := keyedGet(f.Source, key)
				return v, found, true
			}

			if nested && match.HasKeyWithPrefix(keys, prefixes) {
				return reflect.Value{}, false, true
			}

			return reflect.Value{}, false, false
		}
	}
}
