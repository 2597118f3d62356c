package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds not owned by a collaborator package.
const (
	KindStageFailure      = "StageFailure"
	KindCorruptCheckpoint = "CorruptCheckpoint"
	KindInterrupted       = "Interrupted"
)

// StageError reports that a scan job failed while running a stage.
type StageError struct {
	Scan  string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("scan %s failed at stage %s: %v", e.Scan, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// CheckpointError reports a checkpoint file that cannot be trusted for resumption.
type CheckpointError struct {
	Path   string
	Reason string
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s: %s (rerun with --force to start over)", e.Path, e.Reason)
}

// Kind returns the stable error kind.
func (e *CheckpointError) Kind() string { return KindCorruptCheckpoint }

type kinded interface {
	Kind() string
}

// Kind returns the stable kind of err for summaries: the kind of the innermost
// typed cause when there is one, otherwise StageFailure.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindInterrupted
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindStageFailure
}
