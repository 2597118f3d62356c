package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds reported in run summaries.
const (
	KindUnsupportedInterface = "UnsupportedEngineInterface"
	KindOperationFailure     = "EngineOperationFailure"
)

// ShapeMismatchError reports that the engine does not accept a call of this shape:
// the operation is missing or an argument name is unknown to the installed version.
type ShapeMismatchError struct {
	Op     string
	Detail string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("engine rejected call shape for %s: %s", e.Op, e.Detail)
}

// OperationError reports that the engine accepted a call and failed while running it.
type OperationError struct {
	Op      string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("engine operation %s failed: %s", e.Op, e.Message)
}

// Kind returns the stable error kind.
func (e *OperationError) Kind() string { return KindOperationFailure }

// UnsupportedInterfaceError reports that no known call shape for an operation was
// accepted. It names the variants tried and carries none of the rejections.
type UnsupportedInterfaceError struct {
	Op    string
	Tried []string
}

func (e *UnsupportedInterfaceError) Error() string {
	if len(e.Tried) == 0 {
		return fmt.Sprintf("unsupported engine interface for %s: no call shapes known", e.Op)
	}
	return fmt.Sprintf("unsupported engine interface for %s: tried %s", e.Op, strings.Join(e.Tried, ", "))
}

// Kind returns the stable error kind.
func (e *UnsupportedInterfaceError) Kind() string { return KindUnsupportedInterface }

// IsShapeMismatch reports whether err is a call-shape rejection.
func IsShapeMismatch(err error) bool {
	var e *ShapeMismatchError
	return errors.As(err, &e)
}

// IsUnsupported reports whether err means no call shape was accepted.
func IsUnsupported(err error) bool {
	var e *UnsupportedInterfaceError
	return errors.As(err, &e)
}
