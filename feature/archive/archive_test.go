package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"disc3d-batch/core/storage"
	"disc3d-batch/core/storage/mocks"
	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/scan"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testScan = "20250502T082851__U0042__Apis_mellifera__DISC3D"

func finished(t *testing.T) pipeline.Outcome {
	t.Helper()
	job, err := scan.Layout(t.TempDir(), testScan)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(job.ModelsDir, 0o755))
	for _, f := range []string{job.ProjectPath, job.CheckpointPath, job.CameraExportPath} {
		require.NoError(t, os.WriteFile(f, []byte("data"), 0o644))
	}
	return pipeline.Outcome{
		Job:       job,
		Status:    pipeline.Done,
		LastStage: pipeline.Done,
		State:     &pipeline.State{Export: job.CameraExportPath},
	}
}

func newArchiver(client storage.Client) *Archiver {
	return New(client, storage.Config{Bucket: "disc3d", Prefix: "/scans/"}, zap.NewNop())
}

func TestScanFinished_UploadsArtifacts(t *testing.T) {
	client := new(mocks.Client)
	o := finished(t)
	dataset := o.Job.Dataset

	client.On("BucketExists", mock.Anything, "disc3d").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "disc3d", mock.Anything).Return(nil).Once()
	for _, key := range []string{
		"scans/" + dataset + "/" + dataset + ".psz",
		"scans/" + dataset + "/" + dataset + ".checkpoint.yaml",
		"scans/" + dataset + "/" + filepath.Base(o.Job.CameraExportPath),
	} {
		client.On("PutObject", mock.Anything, "disc3d", key, mock.Anything, int64(4), mock.Anything).
			Return(minio.UploadInfo{Key: key}, nil).Once()
	}

	a := newArchiver(client)
	require.NoError(t, a.ScanFinished(context.Background(), o))
	// the bucket is only checked once per run
	require.NoError(t, a.EnsureBucket(context.Background()))

	client.AssertExpectations(t)
}

func TestScanFinished_SkipsUnfinished(t *testing.T) {
	client := new(mocks.Client)
	a := newArchiver(client)

	failed := finished(t)
	failed.Status = pipeline.Failed
	assert.NoError(t, a.ScanFinished(context.Background(), failed))

	done := finished(t)
	done.AlreadyDone = true
	assert.NoError(t, a.ScanFinished(context.Background(), done))

	client.AssertNotCalled(t, "BucketExists", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScanFinished_UploadError(t *testing.T) {
	client := new(mocks.Client)
	o := finished(t)
	o.State.Export = ""

	client.On("BucketExists", mock.Anything, "disc3d").Return(true, nil)
	client.On("PutObject", mock.Anything, "disc3d", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("access denied"))

	err := newArchiver(client).ScanFinished(context.Background(), o)

	assert.ErrorContains(t, err, "access denied")
	client.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestList(t *testing.T) {
	client := new(mocks.Client)
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "scans/ds/ds.psz"}
	ch <- minio.ObjectInfo{Key: "scans/ds/ds.checkpoint.yaml"}
	close(ch)
	client.On("ListObjects", mock.Anything, "disc3d", minio.ListObjectsOptions{Prefix: "scans/ds/", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))

	keys, err := newArchiver(client).List(context.Background(), "ds")

	require.NoError(t, err)
	assert.Equal(t, []string{"scans/ds/ds.psz", "scans/ds/ds.checkpoint.yaml"}, keys)
}

func TestList_Error(t *testing.T) {
	client := new(mocks.Client)
	// The listing keeps going after the error; List must stop it rather than drain it.
	ch := make(chan minio.ObjectInfo, 1)
	ch <- minio.ObjectInfo{Err: errors.New("no such bucket")}
	var listCtx context.Context
	client.On("ListObjects", mock.Anything, "disc3d", mock.Anything).
		Run(func(args mock.Arguments) { listCtx = args.Get(0).(context.Context) }).
		Return((<-chan minio.ObjectInfo)(ch))

	_, err := newArchiver(client).List(context.Background(), "ds")

	assert.ErrorContains(t, err, "no such bucket")
	require.NotNil(t, listCtx)
	assert.ErrorIs(t, listCtx.Err(), context.Canceled)
}
