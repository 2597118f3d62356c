package ledger

import (
	"context"
	"fmt"

	"disc3d-batch/feature/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Ledger records every finished scan of a run in the database.
type Ledger struct {
	db     *gorm.DB
	runID  string
	device int
	method string
	logger *zap.Logger
	newID  func() string
}

// New creates a ledger for one run.
func New(db *gorm.DB, runID string, device int, method string, logger *zap.Logger) *Ledger {
	return &Ledger{
		db:     db,
		runID:  runID,
		device: device,
		method: method,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Migrate creates or updates the ledger table.
func (l *Ledger) Migrate() error {
	if err := l.db.AutoMigrate(&ScanRun{}); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return nil
}

// Name implements pipeline.Observer.
func (l *Ledger) Name() string { return "ledger" }

// ScanFinished implements pipeline.Observer by inserting one row per outcome.
func (l *Ledger) ScanFinished(ctx context.Context, o pipeline.Outcome) error {
	row := l.row(o)
	if err := l.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record %s: %w", o.Job.Name, err)
	}
	l.logger.Debug("Recorded scan run", zap.String("scan", row.Scan), zap.String("id", row.ID))
	return nil
}

func (l *Ledger) row(o pipeline.Outcome) ScanRun {
	r := ScanRun{
		ID:         l.newID(),
		RunID:      l.runID,
		Scan:       o.Job.Name,
		Dataset:    o.Job.Dataset,
		Device:     l.device,
		Method:     l.method,
		Status:     string(o.Status),
		LastStage:  string(o.LastStage),
		Warnings:   len(o.Warnings),
		DurationMs: o.Duration.Milliseconds(),
		StartedAt:  o.StartedAt.UTC(),
		FinishedAt: o.StartedAt.Add(o.Duration).UTC(),
	}
	if o.ResumedFrom != pipeline.Created {
		r.ResumedFrom = string(o.ResumedFrom)
	}
	if o.Status == pipeline.Failed {
		r.FailedStage = string(o.FailedStage)
		r.ErrorKind = o.ErrorKind
		if o.Err != nil {
			r.Error = o.Err.Error()
		}
	}
	return r
}

// History returns the most recent runs of a scan, newest first. A limit of zero or
// less returns every run.
func History(ctx context.Context, db *gorm.DB, scan string, limit int) ([]ScanRun, error) {
	var runs []ScanRun
	q := db.WithContext(ctx).Where("scan = ?", scan).Order("finished_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to query history of %s: %w", scan, err)
	}
	return runs, nil
}
