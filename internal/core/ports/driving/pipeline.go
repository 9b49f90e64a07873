package driving

import (
	"context"
	"time"

	"github.com/maglar0/create-par2/internal/core/domain"
)

// RunRequest describes one preparation run.
type RunRequest struct {
	// InDir holds the files to back up.
	InDir string

	// OutDir receives the volume directories.
	OutDir string

	// TmpDir is the parent of the staging directory. Empty means OutDir.
	TmpDir string

	// Prefix names the volume directories: <prefix>1 .. <prefix>N.
	Prefix string

	// Volumes is the number of volumes, N.
	Volumes int

	// Redundancy is the budget in media counts, e.g. 1.5 of N.
	Redundancy float64

	// Compress archives each file before partitioning.
	Compress bool

	// Passphrase encrypts the archives when non-empty (implies Compress).
	Passphrase string

	// BlockSize and BlockCount pass through to the generator; mutually
	// exclusive, zero means let the generator decide.
	BlockSize  int64
	BlockCount int

	// MemoryMB caps generator memory use when positive.
	MemoryMB int

	// Verify runs the single-volume-loss restorability check.
	Verify bool
}

// VolumeSummary describes one produced volume directory.
type VolumeSummary struct {
	// Dir is the volume directory path.
	Dir string

	// Files is the number of data files on the volume.
	Files int

	// DataBytes is the volume's data payload size.
	DataBytes int64

	// RedundancyBytes is the redundancy data stored on this volume
	// (protecting other volumes' data).
	RedundancyBytes int64
}

// Timings breaks down where a run spent its time.
type Timings struct {
	Archive  time.Duration
	Generate time.Duration
	Checksum time.Duration
	Verify   time.Duration
}

// RunResult summarises a completed run.
type RunResult struct {
	// RunID identifies the run in the catalog.
	RunID string

	// Volumes describes each produced volume directory.
	Volumes []VolumeSummary

	// TotalBytes is the data payload across all volumes.
	TotalBytes int64

	// RedundancyBytes is the redundancy data across all volumes.
	RedundancyBytes int64

	// InputMutations lists input files that changed mid-run.
	InputMutations []string

	// Verified reports whether the restorability check ran and passed.
	Verified bool

	// Timings breaks down the run's wall-clock time.
	Timings Timings
}

// PlanResult is the outcome of a dry run: partition and allocation only,
// nothing written, no external tools invoked.
type PlanResult struct {
	// Groups is the balanced partition of the input files.
	Groups []domain.Group

	// Plan is the redundancy allocation for those groups.
	Plan *domain.RedundancyPlan

	// Findings lists feasibility problems. Empty when the plan is
	// feasible.
	Findings []string
}

// Pipeline runs the full preparation: inventory, optional archiving,
// partitioning, redundancy allocation and generation, distribution,
// checksums and verification.
type Pipeline interface {
	// Run executes the pipeline. A failed run leaves no committed
	// output; rerunning starts from a clean state.
	Run(ctx context.Context, req RunRequest) (*RunResult, error)

	// Plan performs the analytical part only: inventory, partition,
	// allocate, feasibility. Read-only.
	Plan(ctx context.Context, req RunRequest) (*PlanResult, error)
}

// Verifier re-checks an existing output layout: every volume's checksum
// file, and restorability with each volume missing in turn.
type Verifier interface {
	// VerifyLayout checks the volume directories under dir with the
	// given prefix.
	VerifyLayout(ctx context.Context, dir, prefix string) error
}

// RunLister exposes the local run catalog.
type RunLister interface {
	// Runs returns recorded runs, most recent first.
	Runs(ctx context.Context) ([]domain.RunRecord, error)
}
