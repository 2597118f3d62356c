package status

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"disc3d-batch/core/storage"
	"disc3d-batch/core/storage/mocks"
	"disc3d-batch/feature/archive"
	"disc3d-batch/feature/ledger"
	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/scan"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	started  = "20250502T080000__U1__Apis_mellifera__DISC3D"
	pristine = "20250502T090000__U2__Bombus_terrestris__DISC3D"
)

var updated = time.Date(2025, 5, 2, 9, 30, 0, 0, time.UTC)

// setupRoot creates two scan folders; the first has a checkpoint after Imported with
// a recorded failure at Masked.
func setupRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{started, pristine} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o755))
	}

	job, err := scan.Layout(root, started)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(job.ModelsDir, 0o755))
	st := pipeline.NewState(job, pipeline.MethodSeeded)
	st.Stage = pipeline.Imported
	st.Completed = []pipeline.StageRecord{{Stage: pipeline.Imported, At: updated}}
	st.ChunkKey = "0"
	st.UpdatedAt = updated
	st.Failure = &pipeline.Failure{Stage: pipeline.Masked, Kind: "StageFailure", Message: "mask directory unreadable", At: updated}
	require.NoError(t, pipeline.SaveState(job.CheckpointPath, st))
	return root
}

func TestList_Discovered(t *testing.T) {
	svc := NewService(setupRoot(t), "", zap.NewNop(), nil, nil)

	scans, err := svc.List()

	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, started, scans[0].Scan)
	assert.Equal(t, "Imported", scans[0].Stage)
	assert.Equal(t, "seeded", scans[0].Method)
	assert.Equal(t, "Masked", scans[0].FailedStage)
	assert.Equal(t, "StageFailure", scans[0].ErrorKind)
	require.NotNil(t, scans[0].UpdatedAt)
	assert.True(t, updated.Equal(*scans[0].UpdatedAt))

	assert.Equal(t, ScanStatus{Scan: pristine, Dataset: "20250502T090000__U2__Bombus_terrestris", Stage: "Created"}, scans[1])
}

func TestList_Manifest(t *testing.T) {
	root := setupRoot(t)
	manifest := filepath.Join(t.TempDir(), "batch.txt")
	require.NoError(t, scan.WriteManifest(manifest, []string{pristine, "bogus", "20250502T100000__U3__Vespa__DISC3D"}))

	scans, err := NewService(root, manifest, zap.NewNop(), nil, nil).List()

	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.Equal(t, "Created", scans[0].Stage)
	assert.Contains(t, scans[1].Error, "bogus")
	assert.Contains(t, scans[2].Error, "scan folder")
}

func TestList_CorruptCheckpoint(t *testing.T) {
	root := setupRoot(t)
	job, err := scan.Layout(root, pristine)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(job.ModelsDir, 0o755))
	require.NoError(t, os.WriteFile(job.CheckpointPath, []byte("stage: ["), 0o644))

	st := NewService(root, "", zap.NewNop(), nil, nil).Status(pristine)

	assert.Contains(t, st.Error, "checkpoint")
}

func TestDetail_WithLedgerAndArchive(t *testing.T) {
	root := setupRoot(t)
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	l := ledger.New(db, "run-1", 0, "seeded", zap.NewNop())
	require.NoError(t, l.Migrate())
	require.NoError(t, l.ScanFinished(ctx, pipeline.Outcome{
		Job:       scan.Job{Name: started},
		Status:    pipeline.Failed,
		LastStage: pipeline.Imported,
		StartedAt: updated,
	}))

	client := new(mocks.Client)
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Key: "scans/ds/ds.checkpoint.yaml"}
	close(ch)
	client.On("ListObjects", mock.Anything, "disc3d", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
	arch := archive.New(client, storage.Config{Bucket: "disc3d", Prefix: "scans"}, zap.NewNop())

	d, err := NewService(root, "", zap.NewNop(), db, arch).Detail(ctx, started)

	require.NoError(t, err)
	require.NotNil(t, d.State)
	assert.Equal(t, "0", d.State.ChunkKey)
	require.Len(t, d.History, 1)
	assert.Equal(t, "Failed", d.History[0].Status)
	assert.Equal(t, []string{"scans/ds/ds.checkpoint.yaml"}, d.Archived)
}

func TestDetail_Unknown(t *testing.T) {
	_, err := NewService(setupRoot(t), "", zap.NewNop(), nil, nil).Detail(context.Background(), "nope")
	assert.Error(t, err)
}
