package emit

import (
	"reflect"
	"strconv"
	"strings"

	"graph-mapper/internal/mapping"
	"graph-mapper/internal/member"
	"graph-mapper/internal/registry"
)

// Executor maps the frame's source onto its target type.
type Executor func(*Frame) (reflect.Value, error)

// Call is the state shared by every frame of one root mapping call.
type Call struct {
	Registry *registry.Registry

	// flattening holds the sources being flattened into a dictionary, to
	// stop at cycles.
	flattening map[any]bool
}

// NewCall creates the state of a root call.
func NewCall() *Call {
	return &Call{Registry: registry.New(), flattening: make(map[any]bool)}
}

// Frame is the execution state of one plan invocation.
type Frame struct {
	Source   reflect.Value
	Existing reflect.Value
	Index    int
	HasIndex bool
	// Prefixes are the key prefixes of a keyed source; the root is [""].
	Prefixes []string
	// TargetPrefix prefixes the keys written into a dictionary target.
	TargetPrefix string
	// Path is the target path from the root with elements as "[i]".
	Path string
	Call   *Call
	Parent *Frame

	display string
	target  reflect.Value

	element         reflect.Value
	hasElement      bool
	elementPrefixes []string
	slot            reflect.Value

	keys       []string
	keysLoaded bool

	// pending holds member values of a target allocated after population.
	pending []assignment
}

type assignment struct {
	member member.Member
	value  reflect.Value
}

// NewFrame creates the root frame of a call.
func NewFrame(call *Call, source, existing reflect.Value) *Frame {
	if call == nil {
		call = NewCall()
	}

	return &Frame{Source: source, Existing: existing, Prefixes: []string{""}, Call: call}
}

const elementName = "[i]"

// child creates the frame of a nested plan populating the named member.
func (f *Frame) child(source, existing reflect.Value, name string) *Frame {
	c := &Frame{
		Source:   source,
		Existing: existing,
		Index:    f.Index,
		HasIndex: f.HasIndex,
		Prefixes: []string{""},
		Path:     joinPath(f.Path, name),
		Call:     f.Call,
		Parent:   f,
		display:  joinPath(f.DisplayPath(), name),
	}

	if name == elementName {
		c.display = f.DisplayPath() + "[" + strconv.Itoa(f.Index) + "]"
	}

	return c
}

// DisplayPath is the target path with element indexes.
func (f *Frame) DisplayPath() string {
	return f.display
}

// Context returns the view of the frame passed to configured functions.
func (f *Frame) Context() mapping.Context {
	ctx := mapping.Context{
		Source:   valueOrNil(f.Source),
		Target:   valueOrNil(f.target),
		Index:    f.Index,
		HasIndex: f.HasIndex,
		Path:     f.DisplayPath(),
	}

	if ctx.Target == nil {
		ctx.Target = valueOrNil(f.Existing)
	}

	if f.Parent != nil {
		parent := f.Parent.Context()
		ctx.Parent = &parent
	}

	return ctx
}

// ancestor returns the frame whose path is the current path without suffix.
func (f *Frame) ancestor(suffix string) *Frame {
	want := strings.TrimSuffix(strings.TrimSuffix(f.Path, suffix), ".")

	for cur := f; cur != nil; cur = cur.Parent {
		if cur.Path == want {
			return cur
		}
	}

	return nil
}

// sibling returns a frame at the same position with another existing
// target, for plans that hand the target over to a concrete plan.
func (f *Frame) sibling(existing reflect.Value) *Frame {
	return &Frame{
		Source:       f.Source,
		Existing:     existing,
		Index:        f.Index,
		HasIndex:     f.HasIndex,
		Prefixes:     f.Prefixes,
		TargetPrefix: f.TargetPrefix,
		Path:         f.Path,
		Call:         f.Call,
		Parent:       f.Parent,
		display:      f.display,
		keys:         f.keys,
		keysLoaded:   f.keysLoaded,
	}
}

// existingOf returns the current value of a target member.
func (f *Frame) existingOf(m member.Member) reflect.Value {
	switch m.Kind() {
	case member.KindElement:
		return f.slot
	case member.KindField:
		if v, ok := m.Get(f.target); ok {
			return v
		}
	}

	return reflect.Value{}
}

// sourceKeys returns the keys of a keyed source, loaded once per frame.
func (f *Frame) sourceKeys() []string {
	if !f.keysLoaded {
		f.keys = keysOf(f.Source)
		f.keysLoaded = true
	}

	return f.keys
}

func valueOrNil(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}

func joinPath(path, name string) string {
	switch {
	case path == "":
		return name
	case name == "":
		return path
	case strings.HasPrefix(name, "["):
		return path + name
	default:
		return path + "." + name
	}
}
