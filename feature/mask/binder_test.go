package mask

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/engine/enginetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setup creates photos and masks on disk and a fake chunk holding the photos.
func setup(t *testing.T, photos, masks []string) (*enginetest.Fake, string, []string, string) {
	t.Helper()
	root := t.TempDir()
	photoDir := filepath.Join(root, "edof")
	maskDir := filepath.Join(root, "masks")
	require.NoError(t, os.MkdirAll(photoDir, 0o755))
	require.NoError(t, os.MkdirAll(maskDir, 0o755))

	var paths []string
	for _, p := range photos {
		path := filepath.Join(photoDir, p)
		require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
		paths = append(paths, path)
	}
	for _, m := range masks {
		require.NoError(t, os.WriteFile(filepath.Join(maskDir, m), []byte("mask"), 0o644))
	}

	fake := enginetest.New()
	ctx := context.Background()
	_, err := fake.Call(ctx, engine.OpNewDocument, nil)
	require.NoError(t, err)
	res, err := fake.Call(ctx, engine.OpAddChunk, engine.Args{"label": "DISC3D"})
	require.NoError(t, err)
	_, err = fake.Call(ctx, engine.OpAddPhotos, engine.Args{"chunk": res.String("key"), "paths": paths})
	require.NoError(t, err)
	fake.Calls = nil
	return fake, res.String("key"), paths, maskDir
}

func TestMatch_Partition(t *testing.T) {
	_, _, photos, maskDir := setup(t, []string{"a.png", "b.png", "c.png", "d.png"}, []string{"a.png", "c.png", "zz.png", "b.jpg"})

	b, err := Match(photos, maskDir)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"a.png": filepath.Join(maskDir, "a.png"),
		"c.png": filepath.Join(maskDir, "c.png"),
	}, b.Bound)
	assert.Equal(t, []string{"b.png", "d.png"}, b.Unmasked)

	// Every photo lands in exactly one of the two sets.
	for _, p := range photos {
		name := filepath.Base(p)
		_, bound := b.Bound[name]
		assert.True(t, bound != contains(b.Unmasked, name), name)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestMatch_NoDirectory(t *testing.T) {
	b, err := Match([]string{"/x/a.png", "/x/b.png"}, "")
	require.NoError(t, err)
	assert.Empty(t, b.Bound)
	assert.Equal(t, []string{"a.png", "b.png"}, b.Unmasked)

	_, err = Match([]string{"/x/a.png"}, filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestBind_Bulk(t *testing.T) {
	fake, chunk, photos, maskDir := setup(t, []string{"a.png", "b.png", "c.png"}, []string{"a.png", "b.png"})

	b, err := NewBinder(zap.NewNop()).Bind(context.Background(), fake, chunk, photos, maskDir)

	require.NoError(t, err)
	assert.Equal(t, "generate_masks", b.Method)
	assert.Equal(t, []string{engine.OpGenerateMasks}, fake.Ops())
	assert.Equal(t, []string{"a", "b"}, fake.Calls[0].Args["cameras"])
	cams := fake.Chunk(chunk).Cameras
	assert.Equal(t, filepath.Join(maskDir, "a.png"), cams[0].Mask)
	assert.Empty(t, cams[2].Mask)
}

func TestBind_OlderBulkShape(t *testing.T) {
	fake, chunk, photos, maskDir := setup(t, []string{"a.png"}, []string{"a.png"})
	fake.Missing[engine.OpGenerateMasks] = true

	b, err := NewBinder(zap.NewNop()).Bind(context.Background(), fake, chunk, photos, maskDir)

	require.NoError(t, err)
	assert.Equal(t, "import_masks", b.Method)
	assert.Equal(t, []string{engine.OpGenerateMasks, engine.OpImportMasks}, fake.Ops())
}

func TestBind_PerCameraFallback(t *testing.T) {
	fake, chunk, photos, maskDir := setup(t, []string{"a.png", "b.png", "c.png"}, []string{"a.png", "c.png"})
	fake.Missing[engine.OpGenerateMasks] = true
	fake.Missing[engine.OpImportMasks] = true

	b, err := NewBinder(zap.NewNop()).Bind(context.Background(), fake, chunk, photos, maskDir)

	require.NoError(t, err)
	assert.Equal(t, "per_camera", b.Method)
	assert.Equal(t, 2, fake.Count(engine.OpSetCameraMask))
	cams := fake.Chunk(chunk).Cameras
	assert.Equal(t, filepath.Join(maskDir, "a.png"), cams[0].Mask)
	assert.Empty(t, cams[1].Mask)
	assert.Equal(t, filepath.Join(maskDir, "c.png"), cams[2].Mask)
}

func TestBind_EngineFailure(t *testing.T) {
	fake, chunk, photos, maskDir := setup(t, []string{"a.png"}, []string{"a.png"})
	fake.Fail[engine.OpGenerateMasks] = "cannot read mask"

	_, err := NewBinder(zap.NewNop()).Bind(context.Background(), fake, chunk, photos, maskDir)

	var opErr *engine.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, 0, fake.Count(engine.OpImportMasks))
}

func TestBind_NothingToBind(t *testing.T) {
	fake, chunk, photos, maskDir := setup(t, []string{"a.png"}, nil)

	b, err := NewBinder(zap.NewNop()).Bind(context.Background(), fake, chunk, photos, maskDir)

	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, b.Unmasked)
	assert.Empty(t, fake.Ops())
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "IMG_0001", Label("/x/IMG_0001.png"))
	assert.Equal(t, "cam.v2", Label("cam.v2.tif"))
}
