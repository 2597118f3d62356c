package qc

import (
	"context"
	"time"

	"disc3d-batch/core/engine"

	"go.uber.org/zap"
)

// LabelSuffix is appended to the source chunk label to name the snapshot.
const LabelSuffix = "__QC_ALIGNED"

// Snapshot records the disabled copy of the aligned chunk kept for inspection.
type Snapshot struct {
	SourceKey string    `json:"source_key" yaml:"source_key"`
	Key       string    `json:"key,omitempty" yaml:"key,omitempty"`
	Label     string    `json:"label" yaml:"label"`
	Method    string    `json:"method,omitempty" yaml:"method,omitempty"`
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	// Skipped is set when no snapshot could be made; Reason says why.
	Skipped bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Manager takes QC snapshots. A snapshot is a convenience for reviewers, so failing
// to take one never fails the scan.
type Manager struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a new snapshot manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger, now: time.Now}
}

// Take duplicates the source chunk, labels the copy <label>__QC_ALIGNED and disables
// it. The source chunk is never modified. Any failure is logged and returned as a
// skipped snapshot.
func (m *Manager) Take(ctx context.Context, eng engine.Engine, sourceKey, sourceLabel string) Snapshot {
	snap := Snapshot{SourceKey: sourceKey, Label: sourceLabel + LabelSuffix}

	res, tag, err := engine.Dispatch(ctx, eng, "duplicate_chunk", engine.DuplicateChunk(sourceKey)...)
	if err != nil {
		return m.skip(snap, "duplicate", err)
	}
	snap.Key = res.String("key")
	snap.Method = tag
	if snap.Key == "" || snap.Key == sourceKey {
		return m.skip(snap, "duplicate", &engine.OperationError{Op: tag, Message: "engine returned no new chunk key"})
	}

	if _, err := eng.Call(ctx, engine.OpSetChunk, engine.Args{"chunk": snap.Key, "label": snap.Label, "enabled": false}); err != nil {
		return m.skip(snap, "label", err)
	}

	snap.CreatedAt = m.now().UTC()
	m.logger.Info("QC snapshot created", zap.String("label", snap.Label), zap.String("key", snap.Key), zap.String("method", tag))
	return snap
}

func (m *Manager) skip(snap Snapshot, step string, err error) Snapshot {
	snap.Skipped = true
	snap.Reason = err.Error()
	if engine.IsUnsupported(err) {
		m.logger.Warn("QC snapshot skipped: engine cannot duplicate chunks", zap.Error(err))
	} else {
		m.logger.Warn("QC snapshot failed, continuing", zap.String("step", step), zap.Error(err))
	}
	return snap
}
