package pipeline

import (
	"fmt"
	"maps"
	"slices"
)

// Key is a typed handle for a value stored in a Context.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Keys with the same name address the same slot, so
// names must be unique per value type across a pipeline.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the key name used for validation and template locals.
func (k Key[T]) Name() string { return k.name }

// Context is the global build metadata shared by every stage of one run.
// It is created empty per run and mutated additively; only the stage that is
// currently executing touches it.
type Context struct {
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Set stores v under k, replacing any previous value.
func Set[T any](pc *Context, k Key[T], v T) {
	pc.values[k.name] = v
}

// Get returns the value stored under k.
func Get[T any](pc *Context, k Key[T]) (T, bool) {
	raw, ok := pc.values[k.name]
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// MustGet returns the value under k and panics when it is absent. Stages use
// it for keys they declared as required, which Validate guarantees.
func MustGet[T any](pc *Context, k Key[T]) T {
	v, ok := Get(pc, k)
	if !ok {
		panic(fmt.Sprintf("pipeline: required key %q missing or of wrong type", k.name))
	}
	return v
}

// Has reports whether a value exists under name.
func (pc *Context) Has(name string) bool {
	_, ok := pc.values[name]
	return ok
}

// Keys returns the stored key names in sorted order.
func (pc *Context) Keys() []string {
	return slices.Sorted(maps.Keys(pc.values))
}

// Locals returns a shallow snapshot of every value keyed by name, the form
// templates receive as global locals.
func (pc *Context) Locals() map[string]any {
	return maps.Clone(pc.values)
}
