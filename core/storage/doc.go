// Package storage provides the object storage client behind the artifact archive.
//
// It wraps the MinIO Go client, which serves both AWS S3 and self-hosted MinIO
// instances. The Client interface keeps only the calls the archive makes so it can be
// mocked in tests (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
