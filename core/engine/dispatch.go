package engine

import (
	"context"
	"errors"
)

// Variant is one known call shape of an operation.
type Variant struct {
	// Tag identifies the shape in logs and errors (e.g. "downscale", "quality").
	Tag string
	// Op overrides the operation name for shapes that use a different entry point.
	Op string
	// Args are the keyword arguments of this shape.
	Args Args
}

// Dispatch calls op with each variant in order and returns the first accepted result
// together with the tag of the variant that produced it.
//
// A shape mismatch moves on to the next variant. Any other error is returned at once
// and no later variant is tried. When every variant is rejected the result is an
// *UnsupportedInterfaceError listing the tags tried.
func Dispatch(ctx context.Context, eng Engine, op string, variants ...Variant) (Result, string, error) {
	tried := make([]string, 0, len(variants))
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		name := op
		if v.Op != "" {
			name = v.Op
		}

		res, err := eng.Call(ctx, name, v.Args)
		if err == nil {
			return res, v.Tag, nil
		}

		var mismatch *ShapeMismatchError
		if !errors.As(err, &mismatch) {
			return nil, v.Tag, err
		}
		tried = append(tried, v.Tag)
	}
	return nil, "", &UnsupportedInterfaceError{Op: op, Tried: tried}
}
