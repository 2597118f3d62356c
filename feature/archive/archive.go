package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"disc3d-batch/core/storage"
	"disc3d-batch/feature/pipeline"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver uploads the artifacts of finished scans to object storage.
type Archiver struct {
	client  storage.Client
	bucket  string
	prefix  string
	logger  *zap.Logger
	ensured bool
}

// New creates an archiver writing to the configured bucket.
func New(client storage.Client, cfg storage.Config, logger *zap.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}
}

// Key returns the object key of a scan artifact.
func (a *Archiver) Key(dataset, file string) string {
	return path.Join(a.prefix, dataset, filepath.Base(file))
}

// EnsureBucket creates the bucket if it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	if a.ensured {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
		a.logger.Info("Created archive bucket", zap.String("bucket", a.bucket))
	}
	a.ensured = true
	return nil
}

// Name implements pipeline.Observer.
func (a *Archiver) Name() string { return "archive" }

// ScanFinished implements pipeline.Observer. Scans completed by this run are
// uploaded: project, checkpoint and, when exported, the calibrated cameras.
func (a *Archiver) ScanFinished(ctx context.Context, o pipeline.Outcome) error {
	if o.Status != pipeline.Done || o.AlreadyDone {
		return nil
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return err
	}

	files := []string{o.Job.ProjectPath, o.Job.CheckpointPath}
	if o.State != nil && o.State.Export != "" {
		files = append(files, o.State.Export)
	}
	for _, f := range files {
		if err := a.Upload(ctx, a.Key(o.Job.Dataset, f), f); err != nil {
			return err
		}
	}
	a.logger.Info("Scan archived", zap.String("scan", o.Job.Name), zap.Int("files", len(files)))
	return nil
}

// Upload copies a local file to key.
func (a *Archiver) Upload(ctx context.Context, key, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	_, err = a.client.PutObject(ctx, a.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType(file),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// List returns the archived object keys of a dataset.
func (a *Archiver) List(ctx context.Context, dataset string) ([]string, error) {
	// Stops the listing goroutine when an error ends the loop early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    path.Join(a.prefix, dataset) + "/",
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archive of %s: %w", dataset, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".xml":
		return "application/xml"
	case ".yaml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
