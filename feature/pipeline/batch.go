package pipeline

import (
	"context"
	"time"

	"disc3d-batch/feature/scan"

	"go.uber.org/zap"
)

// Observer is told about every finished scan, in batch order. Observer errors are
// logged and never change the outcome.
type Observer interface {
	Name() string
	ScanFinished(ctx context.Context, o Outcome) error
}

// Runner processes a batch of scan folders sequentially with one sequencer. A
// failing scan never stops the batch; cancellation does.
type Runner struct {
	seq       *Sequencer
	root      string
	resolve   scan.Options
	logger    *zap.Logger
	observers []Observer
}

// NewRunner creates a batch runner for scan folders under root.
func NewRunner(seq *Sequencer, root string, logger *zap.Logger, observers ...Observer) *Runner {
	return &Runner{
		seq:       seq,
		root:      root,
		resolve:   seq.opts.ResolveOptions(),
		logger:    logger,
		observers: observers,
	}
}

// Run processes names in order and returns one outcome per scan attempted. Scans
// not reached because ctx was cancelled have no outcome.
func (r *Runner) Run(ctx context.Context, names []string) []Outcome {
	outcomes := make([]Outcome, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("Batch interrupted", zap.Int("remaining", len(names)-i), zap.Error(err))
			break
		}
		r.logger.Info("Processing scan", zap.String("scan", name), zap.Int("index", i+1), zap.Int("total", len(names)))

		out := r.runOne(ctx, name)
		outcomes = append(outcomes, out)
		r.notify(ctx, out)
	}
	return outcomes
}

func (r *Runner) runOne(ctx context.Context, name string) Outcome {
	job, err := scan.Resolve(r.root, name, r.resolve)
	if err != nil {
		r.logger.Error("Cannot resolve scan", zap.String("scan", name), zap.Error(err))
		if job.Name == "" {
			job.Name = name
		}
		return Outcome{
			Job:         job,
			Status:      Failed,
			LastStage:   Created,
			FailedStage: Created,
			ErrorKind:   Kind(err),
			Err:         &StageError{Scan: name, Stage: Created, Err: err},
			StartedAt:   time.Now(),
		}
	}
	return r.seq.Run(ctx, job)
}

func (r *Runner) notify(ctx context.Context, out Outcome) {
	for _, o := range r.observers {
		if err := o.ScanFinished(ctx, out); err != nil {
			r.logger.Warn("Observer failed", zap.String("observer", o.Name()), zap.String("scan", out.Job.Name), zap.Error(err))
		}
	}
}
