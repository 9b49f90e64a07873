package par2

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/logger"
)

// Ensure Generator implements the interface.
var _ driven.RedundancyGenerator = (*Generator)(nil)

// runCommand executes the external tool in dir, streaming its output to
// the console. Swapped out in tests.
var runCommand = func(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Generator produces recovery files by invoking "par2 create".
type Generator struct {
	binary string
}

// NewGenerator returns a generator that invokes the par2 binary found on
// PATH.
func NewGenerator() *Generator {
	return &Generator{binary: "par2"}
}

// Name identifies the generator in logs and the run catalog.
func (g *Generator) Name() string {
	return "par2"
}

// Generate runs par2 create in the group's directory, sized so the
// recovery files total roughly req.TargetBytes, and returns the created
// recovery files as artifacts.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) ([]domain.Artifact, error) {
	if req.TargetBytes <= 0 {
		return nil, nil
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("group %d has no files", req.GroupIndex)
	}

	sizes := make([]int64, len(req.Files))
	var dataBytes int64
	for i, name := range req.Files {
		info, err := os.Stat(filepath.Join(req.Dir, name))
		if err != nil {
			return nil, fmt.Errorf("sizing %s: %w", name, err)
		}
		sizes[i] = info.Size()
		dataBytes += info.Size()
	}

	// The recovery fraction that yields TargetBytes of recovery data on
	// top of the group's data.
	fraction := float64(req.TargetBytes) / float64(dataBytes+req.TargetBytes)

	args := []string{"create"}
	var recovery int
	if req.BlockCount > 0 {
		recovery = RecoveryBlockCount(req.BlockCount, fraction)
		args = append(args, fmt.Sprintf("-b%d", req.BlockCount))
	} else {
		blockSize := req.BlockSize
		if blockSize <= 0 {
			blockSize = SuitableBlockSize(sizes)
			logger.Debug("Group %d: using block size %d", req.GroupIndex, blockSize)
		}
		recovery = RecoveryBlockCount(TotalBlocks(sizes, blockSize), fraction)
		args = append(args, fmt.Sprintf("-s%d", blockSize))
	}
	if recovery >= maxTotalBlocks {
		return nil, fmt.Errorf("group %d needs %d recovery blocks, more than par2 can handle; use a larger block size",
			req.GroupIndex, recovery)
	}
	args = append(args, fmt.Sprintf("-c%d", recovery))
	if req.MemoryMB > 0 {
		args = append(args, fmt.Sprintf("-m%d", req.MemoryMB))
	}

	// Base names carry the group's volume number so recovery sets from
	// different groups can share a directory after distribution.
	stem := fmt.Sprintf("recovery-vol%03d", req.GroupIndex+1)
	args = append(args, "--", stem+".par2")
	args = append(args, req.Files...)

	if err := runCommand(ctx, req.Dir, g.binary, args...); err != nil {
		return nil, fmt.Errorf("par2 create: %w", err)
	}

	return collectArtifacts(req.Dir, stem, req.GroupIndex)
}

// collectArtifacts gathers the recovery files par2 wrote for one group.
func collectArtifacts(dir, stem string, group int) ([]domain.Artifact, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var artifacts []domain.Artifact
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, stem) || !strings.HasSuffix(name, ".par2") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("sizing %s: %w", name, err)
		}
		artifacts = append(artifacts, domain.Artifact{
			OriginGroup: group,
			Path:        filepath.Join(dir, name),
			Size:        info.Size(),
		})
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("par2 reported success but wrote no %s files", stem)
	}

	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].Path < artifacts[j].Path })
	return artifacts, nil
}
