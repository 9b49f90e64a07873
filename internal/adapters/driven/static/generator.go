// Package static provides a generator that writes deterministic filler
// instead of real redundancy data. It exists for dry runs and for
// exercising the pipeline on machines without par2 installed; its output
// has the right sizes and names but no recovery value.
package static

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

// artifactSize is the preferred size of each filler artifact. Several
// medium artifacts rather than one big one gives the distributor
// something realistic to spread.
const artifactSize = 4 << 20

// Ensure Generator implements the interface.
var _ driven.RedundancyGenerator = (*Generator)(nil)

// Generator writes zero-filled files of exactly the requested total size.
type Generator struct{}

// NewGenerator returns the filler generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Name identifies the generator in logs and the run catalog.
func (g *Generator) Name() string {
	return "static"
}

// Generate writes filler files totalling exactly req.TargetBytes.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) ([]domain.Artifact, error) {
	if req.TargetBytes <= 0 {
		return nil, nil
	}

	var artifacts []domain.Artifact
	remaining := req.TargetBytes
	for i := 0; remaining > 0; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := int64(artifactSize)
		if remaining < size {
			size = remaining
		}
		name := fmt.Sprintf("recovery-vol%03d.fill%03d", req.GroupIndex+1, i)
		path := filepath.Join(req.Dir, name)
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		artifacts = append(artifacts, domain.Artifact{
			OriginGroup: req.GroupIndex,
			Path:        path,
			Size:        size,
		})
		remaining -= size
	}
	return artifacts, nil
}
