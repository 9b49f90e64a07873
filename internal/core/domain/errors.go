package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrEmptyInput indicates the input directory holds no usable files.
	ErrEmptyInput = errors.New("no input files")

	// ErrInsufficientFiles indicates fewer files than requested volumes.
	ErrInsufficientFiles = errors.New("not enough input files")

	// ErrTooManyFiles indicates the input exceeds the per-run file cap.
	ErrTooManyFiles = errors.New("too many input files")

	// ErrInfeasibleRedundancy indicates size skew or medium capacity
	// makes the requested redundancy unattainable.
	ErrInfeasibleRedundancy = errors.New("requested redundancy is infeasible")

	// ErrCapacityExceeded indicates the distributor would overfill a
	// volume. The allocator's feasibility check should make this
	// impossible; treat it as an internal invariant violation.
	ErrCapacityExceeded = errors.New("volume capacity exceeded")

	// ErrExternalTool indicates the redundancy generator or archiver
	// failed or returned an unexpected amount of data.
	ErrExternalTool = errors.New("external tool failed")
)

// Exit codes for the CLI, one per error class.
const (
	ExitOK                   = 0
	ExitFailure              = 1
	ExitEmptyInput           = 2
	ExitInsufficientFiles    = 3
	ExitInfeasibleRedundancy = 4
	ExitCapacityExceeded     = 5
	ExitExternalTool         = 6
)

// ExitCode maps an error to the CLI exit code for its class.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrEmptyInput):
		return ExitEmptyInput
	case errors.Is(err, ErrInsufficientFiles), errors.Is(err, ErrTooManyFiles):
		return ExitInsufficientFiles
	case errors.Is(err, ErrInfeasibleRedundancy):
		return ExitInfeasibleRedundancy
	case errors.Is(err, ErrCapacityExceeded):
		return ExitCapacityExceeded
	case errors.Is(err, ErrExternalTool):
		return ExitExternalTool
	default:
		return ExitFailure
	}
}

// Findings collects feasibility problems so checks run to completion and
// a user sees every problem at once instead of one per run.
type Findings struct {
	problems []string
}

// Add records one problem.
func (f *Findings) Add(format string, args ...any) {
	f.problems = append(f.problems, fmt.Sprintf(format, args...))
}

// Empty returns true when no problems were recorded.
func (f *Findings) Empty() bool {
	return len(f.problems) == 0
}

// Problems returns the recorded problems in order.
func (f *Findings) Problems() []string {
	return f.problems
}

// ErrorOr returns nil when no problems were recorded, otherwise an error
// wrapping sentinel that lists every problem.
func (f *Findings) ErrorOr(sentinel error) error {
	if f.Empty() {
		return nil
	}
	return fmt.Errorf("%w:\n  - %s", sentinel, strings.Join(f.problems, "\n  - "))
}
