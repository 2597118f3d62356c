package enginetest

import (
	"context"
	"path/filepath"
	"testing"

	"disc3d-batch/core/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_RejectAndFail(t *testing.T) {
	f := New()
	f.Reject[engine.OpMatchPhotos] = []string{"accuracy"}
	f.Fail[engine.OpBuildModel] = "out of memory"
	ctx := context.Background()

	_, err := f.Call(ctx, engine.OpMatchPhotos, engine.Args{"accuracy": engine.Enum("HighestAccuracy")})
	assert.True(t, engine.IsShapeMismatch(err))

	_, err = f.Call(ctx, engine.OpBuildModel, engine.Args{})
	var opErr *engine.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "out of memory", opErr.Message)

	assert.Equal(t, []string{engine.OpMatchPhotos, engine.OpBuildModel}, f.Ops())
}

func TestFake_SavedDocumentSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scan.psz")

	f := New()
	_, err := f.Call(ctx, engine.OpNewDocument, nil)
	require.NoError(t, err)
	res, err := f.Call(ctx, engine.OpAddChunk, engine.Args{"label": "DISC3D"})
	require.NoError(t, err)
	key := res.String("key")
	_, err = f.Call(ctx, engine.OpAddPhotos, engine.Args{"chunk": key, "paths": []string{"/p/a.png", "/p/b.png"}})
	require.NoError(t, err)
	_, err = f.Call(ctx, engine.OpSaveDocument, engine.Args{"path": path})
	require.NoError(t, err)

	g := f.Restart()
	assert.Empty(t, g.Ops())
	_, err = g.Call(ctx, engine.OpOpenDocument, engine.Args{"path": path})
	require.NoError(t, err)
	require.NotNil(t, g.Chunk(key))
	assert.Len(t, g.Chunk(key).Cameras, 2)
	assert.Equal(t, "a", g.Chunk(key).Cameras[0].Label)
}
