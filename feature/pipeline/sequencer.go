package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"disc3d-batch/core/engine"
	"disc3d-batch/core/logger"
	"disc3d-batch/feature/mask"
	"disc3d-batch/feature/qc"
	"disc3d-batch/feature/reference"
	"disc3d-batch/feature/scan"

	"go.uber.org/zap"
)

// Outcome is the result of running one scan job.
type Outcome struct {
	Job scan.Job
	// Status is Done or Failed.
	Status Stage
	// LastStage is the last stage completed, which is where a rerun resumes.
	LastStage Stage
	// ResumedFrom is the checkpointed stage the run started from.
	ResumedFrom Stage
	// FailedStage and ErrorKind are set when Status is Failed.
	FailedStage Stage
	ErrorKind   string
	Err         error
	// AlreadyDone is set when the job was complete before this run.
	AlreadyDone bool
	Warnings    []string
	StartedAt   time.Time
	Duration    time.Duration
	State       *State
}

// stageFunc does one stage's engine work and records it in the state.
type stageFunc func(ctx context.Context, job scan.Job, st *State, l *zap.Logger) error

// Sequencer drives scan jobs through the stage sequence against one engine session.
type Sequencer struct {
	eng    engine.Engine
	opts   Options
	logger *zap.Logger
	masks  *mask.Binder
	refs   *reference.Importer
	qc     *qc.Manager
	now    func() time.Time
	stages map[Stage]stageFunc
}

// NewSequencer creates a sequencer.
func NewSequencer(eng engine.Engine, opts Options, logger *zap.Logger) *Sequencer {
	s := &Sequencer{
		eng:    eng,
		opts:   opts,
		logger: logger,
		masks:  mask.NewBinder(logger),
		refs:   reference.NewImporter(logger),
		qc:     qc.NewManager(logger),
		now:    time.Now,
	}
	s.stages = map[Stage]stageFunc{
		Imported:      s.importPhotos,
		Masked:        s.bindMasks,
		Referenced:    s.importReference,
		Matched:       s.matchPhotos,
		Aligned:       s.alignCameras,
		QCSnapshotted: s.snapshot,
		Optimized:     s.optimize,
		DepthBuilt:    s.buildDepthMaps,
		Meshed:        s.buildModel,
		Persisted:     s.persist,
		Done:          func(context.Context, scan.Job, *State, *zap.Logger) error { return nil },
	}
	return s
}

// Run takes a job from its last checkpoint to Done, one stage at a time. Each stage
// saves the engine document and then the checkpoint; the checkpoint write is what
// marks the stage complete, so a crash in between reruns that stage. Errors never
// escape: they are reported in the Outcome.
func (s *Sequencer) Run(ctx context.Context, job scan.Job) Outcome {
	l := logger.ForScan(s.logger, job)
	out := Outcome{Job: job, StartedAt: s.now()}
	finish := func() Outcome {
		out.Duration = s.now().Sub(out.StartedAt)
		return out
	}

	st, err := s.prepare(job)
	if err != nil {
		out.Status, out.LastStage, out.FailedStage = Failed, Created, Created
		out.Err = &StageError{Scan: job.Name, Stage: Created, Err: err}
		out.ErrorKind = Kind(err)
		l.Error("Cannot resume scan", zap.Error(err))
		return finish()
	}
	out.State = st
	out.ResumedFrom = st.Stage
	out.LastStage = st.Stage

	if st.Stage == Done {
		out.Status = Done
		out.AlreadyDone = true
		l.Info("Scan already complete, skipping")
		return finish()
	}

	if st.Stage != Created {
		l.Info("Resuming scan", zap.String("from", string(st.Stage)))
		if err := s.open(ctx, job); err != nil {
			return s.fail(&out, job, st, st.Stage.Remaining()[0], err, l, finish)
		}
	}

	for _, stage := range st.Stage.Remaining() {
		started := s.now()
		l.Info("Stage started", zap.String("stage", string(stage)))

		// A failed stage leaves the checkpoint as the last completed stage wrote it.
		saved := st.clone()
		rollback := func(err error) Outcome {
			*st = *saved
			return s.fail(&out, job, st, stage, err, l, finish)
		}

		if err := s.stages[stage](ctx, job, st, l); err != nil {
			return rollback(err)
		}
		if stage != Done {
			if _, err := s.eng.Call(ctx, engine.OpSaveDocument, engine.Args{"path": job.ProjectPath}); err != nil {
				return rollback(fmt.Errorf("failed to save project: %w", err))
			}
		}

		st.complete(stage, started, s.now().Sub(started))
		if err := SaveState(job.CheckpointPath, st); err != nil {
			return rollback(err)
		}
		out.LastStage = stage
		l.Info("Stage finished", zap.String("stage", string(stage)), zap.Duration("duration", st.Completed[len(st.Completed)-1].Duration))
	}

	out.Status = Done
	out.Warnings = warnings(st)
	l.Info("Scan complete", zap.Int("warnings", len(out.Warnings)))
	return finish()
}

func (s *Sequencer) prepare(job scan.Job) (*State, error) {
	if s.opts.Force {
		if err := RemoveState(job.CheckpointPath); err != nil {
			return nil, err
		}
		return NewState(job, s.opts.Method), nil
	}
	st, err := LoadState(job.CheckpointPath)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return NewState(job, s.opts.Method), nil
	}
	if st.Method != s.opts.Method {
		return nil, &CheckpointError{Path: job.CheckpointPath, Reason: fmt.Sprintf("written by method %s, running %s", st.Method, s.opts.Method)}
	}
	return st, nil
}

func (s *Sequencer) open(ctx context.Context, job scan.Job) error {
	if _, err := os.Stat(job.ProjectPath); err != nil {
		return &scan.MissingInputError{What: "project", Path: job.ProjectPath}
	}
	if _, err := s.eng.Call(ctx, engine.OpOpenDocument, engine.Args{"path": job.ProjectPath}); err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	return nil
}

func (s *Sequencer) fail(out *Outcome, job scan.Job, st *State, stage Stage, err error, l *zap.Logger, finish func() Outcome) Outcome {
	out.Status = Failed
	out.FailedStage = stage
	out.Err = &StageError{Scan: job.Name, Stage: stage, Err: err}
	out.ErrorKind = Kind(err)
	out.Warnings = warnings(st)

	st.Failure = &Failure{Stage: stage, Kind: out.ErrorKind, Message: err.Error(), At: s.now().UTC()}
	if _, statErr := os.Stat(job.ModelsDir); statErr == nil {
		if saveErr := SaveState(job.CheckpointPath, st); saveErr != nil {
			l.Warn("Failed to record failure in checkpoint", zap.Error(saveErr))
		}
	}

	l.Error("Stage failed",
		zap.String("stage", string(stage)),
		zap.String("kind", out.ErrorKind),
		zap.Error(err),
	)
	return finish()
}

func warnings(st *State) []string {
	var out []string
	if st.Masks != nil && len(st.Masks.Unmasked) > 0 {
		out = append(out, fmt.Sprintf("%d photos without mask", len(st.Masks.Unmasked)))
	}
	if st.Reference != nil && len(st.Reference.Unreferenced) > 0 {
		out = append(out, fmt.Sprintf("%d cameras without reference", len(st.Reference.Unreferenced)))
	}
	if st.Alignment != nil && st.Alignment.Aligned < st.Alignment.Cameras {
		out = append(out, fmt.Sprintf("%d of %d cameras not aligned", st.Alignment.Cameras-st.Alignment.Aligned, st.Alignment.Cameras))
	}
	if st.QC != nil && st.QC.Skipped {
		out = append(out, "QC snapshot skipped: "+st.QC.Reason)
	}
	return out
}
