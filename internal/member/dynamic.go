package member

// Dynamic is a key/value object whose keys are only known at runtime. It is
// a source and target category of its own: configuration scoped to
// dictionaries never applies to it.
type Dynamic interface {
	Keys() []string
	TryGetValue(key string) (any, bool)
	Set(key string, value any)
}

// Expando is an insertion-ordered Dynamic.
type Expando struct {
	keys   []string
	values map[string]any
}

// NewExpando creates an empty expando.
func NewExpando() *Expando {
	return &Expando{values: make(map[string]any)}
}

// Keys returns the keys in insertion order.
func (e *Expando) Keys() []string {
	return append([]string(nil), e.keys...)
}

// TryGetValue returns the value stored under key.
func (e *Expando) TryGetValue(key string) (any, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Set stores value under key, keeping the original position of an existing key.
func (e *Expando) Set(key string, value any) {
	if e.values == nil {
		e.values = make(map[string]any)
	}

	if _, ok := e.values[key]; !ok {
		e.keys = append(e.keys, key)
	}

	e.values[key] = value
}

// Len returns the number of keys.
func (e *Expando) Len() int {
	return len(e.keys)
}
