package cmd

import (
	"context"

	"disc3d-batch/core/config"
	"disc3d-batch/core/database"
	"disc3d-batch/core/storage"
	"disc3d-batch/feature/archive"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openLedgerDB connects to the run ledger database. Like the archive it is optional:
// a connection failure is logged and the run goes on without it.
func openLedgerDB(cfg *config.Config, logg *zap.Logger) *gorm.DB {
	if !cfg.Database.Enabled() {
		return nil
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logg.Warn("Optional database connection failed", zap.Error(err))
		return nil
	}
	logg.Info("Connected to ledger database", zap.String("driver", cfg.Database.Driver))
	return db
}

// openArchive connects to the artifact archive, or returns nil when it is disabled
// or unreachable.
func openArchive(ctx context.Context, cfg *config.Config, logg *zap.Logger) *archive.Archiver {
	if !cfg.Storage.Enabled {
		return nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		logg.Warn("Optional archive storage failed", zap.Error(err))
		return nil
	}
	arch := archive.New(client, cfg.Storage, logg)
	if err := arch.EnsureBucket(ctx); err != nil {
		logg.Warn("Optional archive storage failed", zap.Error(err))
		return nil
	}
	return arch
}
