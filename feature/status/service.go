package status

import (
	"context"
	"errors"
	"os"
	"time"

	"disc3d-batch/feature/archive"
	"disc3d-batch/feature/ledger"
	"disc3d-batch/feature/pipeline"
	"disc3d-batch/feature/scan"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScanStatus is the checkpointed progress of one scan folder.
type ScanStatus struct {
	Scan        string     `json:"scan"`
	Dataset     string     `json:"dataset,omitempty"`
	Stage       string     `json:"stage"`
	Method      string     `json:"method,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	FailedStage string     `json:"failed_stage,omitempty"`
	ErrorKind   string     `json:"error_kind,omitempty"`
	Message     string     `json:"message,omitempty"`
	// Error is set when the folder name or its checkpoint cannot be read.
	Error string `json:"error,omitempty"`
}

// Detail is everything known about one scan.
type Detail struct {
	ScanStatus
	State    *pipeline.State  `json:"state,omitempty"`
	History  []ledger.ScanRun `json:"history,omitempty"`
	Archived []string         `json:"archived,omitempty"`
}

// Service reads scan progress from checkpoints. It never writes.
type Service struct {
	root     string
	manifest string
	logger   *zap.Logger
	db       *gorm.DB
	archive  *archive.Archiver
}

// NewService creates a status service for scans under root. With a manifest only
// its scans are listed, otherwise every scan folder under root. db and arch are
// optional.
func NewService(root, manifest string, logger *zap.Logger, db *gorm.DB, arch *archive.Archiver) *Service {
	return &Service{root: root, manifest: manifest, logger: logger, db: db, archive: arch}
}

// Names returns the scans to report on, in manifest or name order.
func (s *Service) Names() ([]string, error) {
	if s.manifest == "" {
		return scan.Discover(s.root)
	}
	entries, err := scan.ReadManifest(s.manifest)
	if err != nil {
		return nil, err
	}
	return scan.Expand(s.root, entries)
}

// List returns the status of every scan.
func (s *Service) List() ([]ScanStatus, error) {
	names, err := s.Names()
	if err != nil {
		return nil, err
	}
	out := make([]ScanStatus, 0, len(names))
	for _, name := range names {
		st, _ := s.load(name)
		out = append(out, st)
	}
	return out, nil
}

// Status returns the status of one scan.
func (s *Service) Status(name string) ScanStatus {
	st, _ := s.load(name)
	return st
}

// Detail returns the checkpoint of a scan together with its ledger history and
// archived objects when those are configured. Lookup failures of the optional
// sources are logged and leave their fields empty.
func (s *Service) Detail(ctx context.Context, name string) (*Detail, error) {
	st, state := s.load(name)
	if st.Error != "" {
		return nil, errors.New(st.Error)
	}
	d := &Detail{ScanStatus: st, State: state}

	if s.db != nil {
		history, err := ledger.History(ctx, s.db, name, 20)
		if err != nil {
			s.logger.Warn("Failed to read ledger", zap.String("scan", name), zap.Error(err))
		}
		d.History = history
	}
	if s.archive != nil && st.Dataset != "" {
		keys, err := s.archive.List(ctx, st.Dataset)
		if err != nil {
			s.logger.Warn("Failed to list archive", zap.String("scan", name), zap.Error(err))
		}
		d.Archived = keys
	}
	return d, nil
}

func (s *Service) load(name string) (ScanStatus, *pipeline.State) {
	out := ScanStatus{Scan: name, Stage: string(pipeline.Created)}
	job, err := scan.Layout(s.root, name)
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}
	out.Dataset = job.Dataset
	if _, err := os.Stat(job.Dir); err != nil {
		out.Error = (&scan.MissingInputError{What: "scan folder", Path: job.Dir}).Error()
		return out, nil
	}

	state, err := pipeline.LoadState(job.CheckpointPath)
	if err != nil {
		out.Error = err.Error()
		return out, nil
	}
	if state == nil {
		return out, nil
	}

	out.Stage = string(state.Stage)
	out.Method = string(state.Method)
	if !state.UpdatedAt.IsZero() {
		at := state.UpdatedAt
		out.UpdatedAt = &at
	}
	if state.Failure != nil {
		out.FailedStage = string(state.Failure.Stage)
		out.ErrorKind = state.Failure.Kind
		out.Message = state.Failure.Message
	}
	return out, state
}
