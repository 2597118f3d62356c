package engine_test

import (
	"context"
	"errors"
	"testing"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/engine/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func variants() []engine.Variant {
	return []engine.Variant{
		{Tag: "A", Args: engine.Args{"a": 1}},
		{Tag: "B", Args: engine.Args{"b": 2}},
		{Tag: "C", Args: engine.Args{"c": 3}},
	}
}

func mismatch(op string) error {
	return &engine.ShapeMismatchError{Op: op, Detail: "unexpected keyword"}
}

func TestDispatch_FallsThroughMismatches(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, "op", engine.Args{"a": 1}).Return(nil, mismatch("op")).Once()
	eng.On("Call", mock.Anything, "op", engine.Args{"b": 2}).Return(nil, mismatch("op")).Once()
	eng.On("Call", mock.Anything, "op", engine.Args{"c": 3}).Return(engine.Result{"ok": true}, nil).Once()

	res, tag, err := engine.Dispatch(context.Background(), eng, "op", variants()...)

	require.NoError(t, err)
	assert.Equal(t, "C", tag)
	assert.True(t, res.Bool("ok"))
	eng.AssertNumberOfCalls(t, "Call", 3)
}

func TestDispatch_StopsAtFirstSuccess(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, "op", engine.Args{"a": 1}).Return(engine.Result{}, nil).Once()

	_, tag, err := engine.Dispatch(context.Background(), eng, "op", variants()...)

	require.NoError(t, err)
	assert.Equal(t, "A", tag)
	eng.AssertNumberOfCalls(t, "Call", 1)
}

func TestDispatch_AllMismatchIsUnsupported(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, "op", mock.Anything).Return(nil, mismatch("op"))

	_, _, err := engine.Dispatch(context.Background(), eng, "op", variants()...)

	var unsupported *engine.UnsupportedInterfaceError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "op", unsupported.Op)
	assert.Equal(t, []string{"A", "B", "C"}, unsupported.Tried)

	// The rejections themselves stay inside the dispatcher.
	var shape *engine.ShapeMismatchError
	assert.False(t, errors.As(err, &shape))
	assert.Nil(t, errors.Unwrap(err))
}

func TestDispatch_OperationFailurePropagates(t *testing.T) {
	eng := new(mocks.Engine)
	failure := &engine.OperationError{Op: "op", Message: "out of memory"}
	eng.On("Call", mock.Anything, "op", engine.Args{"a": 1}).Return(nil, mismatch("op")).Once()
	eng.On("Call", mock.Anything, "op", engine.Args{"b": 2}).Return(nil, failure).Once()

	_, tag, err := engine.Dispatch(context.Background(), eng, "op", variants()...)

	assert.Same(t, failure, err)
	assert.Equal(t, "B", tag)
	eng.AssertNotCalled(t, "Call", mock.Anything, "op", engine.Args{"c": 3})
}

func TestDispatch_VariantOpOverride(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, engine.OpCopyChunk, mock.Anything).Return(nil, mismatch(engine.OpCopyChunk)).Once()
	eng.On("Call", mock.Anything, engine.OpDuplicateChunk, mock.Anything).Return(engine.Result{"key": "2"}, nil).Once()

	res, tag, err := engine.Dispatch(context.Background(), eng, "duplicate_chunk", engine.DuplicateChunk("1")...)

	require.NoError(t, err)
	assert.Equal(t, "duplicate", tag)
	assert.Equal(t, "2", res.String("key"))
}

func TestDispatch_NoVariants(t *testing.T) {
	eng := new(mocks.Engine)

	_, _, err := engine.Dispatch(context.Background(), eng, "op")

	assert.True(t, engine.IsUnsupported(err))
	eng.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_CancelledContext(t *testing.T) {
	eng := new(mocks.Engine)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := engine.Dispatch(ctx, eng, "op", variants()...)

	assert.ErrorIs(t, err, context.Canceled)
	eng.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}
