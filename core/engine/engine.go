package engine

import (
	"context"
	"sort"

	"disc3d-batch/core/utils"
)

// Args are the keyword arguments of a single engine call.
type Args map[string]any

// With returns a copy of a extended by extra. Keys in extra win.
func (a Args) With(extra Args) Args {
	out := make(Args, len(a)+len(extra))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Keys returns the argument names in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Result is the decoded payload of a successful engine call.
// Numbers arrive as float64 from the wire, so accessors convert loosely.
type Result map[string]any

// String returns the value at key as a string, or "" when absent.
func (r Result) String(key string) string {
	if v, ok := r[key]; ok && v != nil {
		return utils.ToString(v)
	}
	return ""
}

// Int returns the value at key as an int, or 0 when absent.
func (r Result) Int(key string) int {
	return utils.ToInt(r[key])
}

// Float returns the value at key as a float64, or 0 when absent.
func (r Result) Float(key string) float64 {
	return utils.ToFloat(r[key])
}

// Bool returns the value at key as a bool, or false when absent.
func (r Result) Bool(key string) bool {
	return utils.ToBool(r[key])
}

// Engine is a live session with the reconstruction engine.
//
// Call either succeeds, fails with *ShapeMismatchError when the engine's installed API
// does not accept the operation or argument names, or fails with *OperationError when
// the engine accepted the call but could not carry it out.
type Engine interface {
	Call(ctx context.Context, op string, args Args) (Result, error)
	Close() error
}
