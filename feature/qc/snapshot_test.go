package qc

import (
	"context"
	"testing"
	"time"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/engine/enginetest"
	"disc3d-batch/core/engine/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func alignedChunk(t *testing.T) (*enginetest.Fake, string) {
	t.Helper()
	ctx := context.Background()
	f := enginetest.New()
	_, err := f.Call(ctx, engine.OpNewDocument, nil)
	require.NoError(t, err)
	res, err := f.Call(ctx, engine.OpAddChunk, engine.Args{"label": "DISC3D"})
	require.NoError(t, err)
	key := res.String("key")
	_, err = f.Call(ctx, engine.OpAddPhotos, engine.Args{"chunk": key, "paths": []string{"/p/a.png"}})
	require.NoError(t, err)
	_, err = f.Call(ctx, engine.OpMatchPhotos, engine.Args{"chunk": key})
	require.NoError(t, err)
	_, err = f.Call(ctx, engine.OpAlignCameras, engine.Args{"chunk": key})
	require.NoError(t, err)
	f.Calls = nil
	return f, key
}

func newManager() *Manager {
	m := NewManager(zap.NewNop())
	m.now = func() time.Time { return time.Date(2025, 5, 2, 8, 30, 0, 0, time.UTC) }
	return m
}

func TestTake_Copy(t *testing.T) {
	f, key := alignedChunk(t)

	snap := newManager().Take(context.Background(), f, key, "DISC3D")

	require.False(t, snap.Skipped, snap.Reason)
	assert.Equal(t, "copy", snap.Method)
	assert.Equal(t, "DISC3D__QC_ALIGNED", snap.Label)
	assert.False(t, snap.Enabled)
	assert.Equal(t, time.Date(2025, 5, 2, 8, 30, 0, 0, time.UTC), snap.CreatedAt)

	copyChunk := f.Chunk(snap.Key)
	require.NotNil(t, copyChunk)
	assert.Equal(t, "DISC3D__QC_ALIGNED", copyChunk.Label)
	assert.False(t, copyChunk.Enabled)

	source := f.Chunk(key)
	assert.Equal(t, "DISC3D", source.Label)
	assert.True(t, source.Enabled)
}

func TestTake_DuplicateFallback(t *testing.T) {
	f, key := alignedChunk(t)
	f.Missing[engine.OpCopyChunk] = true

	snap := newManager().Take(context.Background(), f, key, "DISC3D")

	require.False(t, snap.Skipped)
	assert.Equal(t, "duplicate", snap.Method)
	assert.Equal(t, []string{engine.OpCopyChunk, engine.OpDuplicateChunk, engine.OpSetChunk}, f.Ops())
}

func TestTake_UnsupportedIsSoft(t *testing.T) {
	f, key := alignedChunk(t)
	f.Missing[engine.OpCopyChunk] = true
	f.Missing[engine.OpDuplicateChunk] = true

	snap := newManager().Take(context.Background(), f, key, "DISC3D")

	assert.True(t, snap.Skipped)
	assert.Contains(t, snap.Reason, "unsupported engine interface")
	assert.Len(t, f.Chunks(), 1)
}

func TestTake_OperationFailureIsSoft(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, engine.OpCopyChunk, mock.Anything).
		Return(nil, &engine.OperationError{Op: engine.OpCopyChunk, Message: "disk full"})

	snap := newManager().Take(context.Background(), eng, "0", "DISC3D")

	assert.True(t, snap.Skipped)
	assert.Contains(t, snap.Reason, "disk full")
	eng.AssertNotCalled(t, "Call", mock.Anything, engine.OpDuplicateChunk, mock.Anything)
}

func TestTake_SameKeyRejected(t *testing.T) {
	eng := new(mocks.Engine)
	eng.On("Call", mock.Anything, engine.OpCopyChunk, mock.Anything).Return(engine.Result{"key": "0"}, nil)

	snap := newManager().Take(context.Background(), eng, "0", "DISC3D")

	assert.True(t, snap.Skipped)
	eng.AssertNotCalled(t, "Call", mock.Anything, engine.OpSetChunk, mock.Anything)
}
