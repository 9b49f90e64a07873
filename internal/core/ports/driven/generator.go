package driven

import (
	"context"

	"github.com/maglar0/create-par2/internal/core/domain"
)

// GenerateRequest asks for redundancy data covering one group's files.
type GenerateRequest struct {
	// GroupIndex is the group whose files are being protected.
	GroupIndex int

	// Dir is the directory holding the group's staged files. Generated
	// artifacts are written here before distribution relocates them.
	Dir string

	// Files are the group member file names within Dir.
	Files []string

	// TargetBytes is the amount of redundancy data to produce. The
	// generator is assumed deterministic in size: what it is asked to
	// produce is what it produces, within the allocator's tolerance.
	TargetBytes int64

	// BlockSize overrides the generator's block size heuristic when
	// positive. Generator specific; the Reed-Solomon generator ignores it.
	BlockSize int64

	// BlockCount overrides the number of blocks when positive.
	// Mutually exclusive with BlockSize.
	BlockCount int

	// MemoryMB caps the generator's memory use when positive.
	MemoryMB int
}

// RedundancyGenerator produces redundancy artifacts for one group.
// Generation is the dominant wall-clock cost of a run and may be invoked
// concurrently for independent groups.
type RedundancyGenerator interface {
	// Name identifies the generator in logs and the run catalog.
	Name() string

	// Generate produces roughly TargetBytes of redundancy data for the
	// group and returns the created artifacts.
	Generate(ctx context.Context, req GenerateRequest) ([]domain.Artifact, error)
}
