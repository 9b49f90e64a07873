package services

import (
	"fmt"
	"sort"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/logger"
)

// Partitioner assigns files to N groups so that per-group total size is
// as equal as achievable without splitting any file.
//
// The algorithm is greedy longest-processing-time (LPT), the classical
// multiprocessor-scheduling heuristic: files are taken in descending
// size order and each goes to the group that overshoots the current
// maximum the least, which for equally weighted groups is simply the
// smallest group. LPT is within 4/3 of the optimal balanced partition
// and runs in O(F log F + F·N).
type Partitioner struct {
	cfg domain.Config
}

// NewPartitioner creates a partitioner with the given configuration.
func NewPartitioner(cfg domain.Config) *Partitioner {
	return &Partitioner{cfg: cfg}
}

// Partition splits files into n groups. lastFraction in (0,1] sizes the
// last group toward that fraction of the others; pass 1 for equal
// groups. The assignment is deterministic: ties go to the lowest group
// index, and equal-size files are ordered by path.
func (p *Partitioner) Partition(files []domain.FileRecord, n int, lastFraction float64) ([]domain.Group, error) {
	if n < 1 {
		return nil, fmt.Errorf("group count must be at least 1, got %d", n)
	}
	if lastFraction <= 0 || lastFraction > 1 {
		return nil, fmt.Errorf("last group fraction must be in (0,1], got %g", lastFraction)
	}
	if len(files) < n && !p.cfg.Force {
		return nil, fmt.Errorf("%w: %d files for %d volumes; consider archiving the input into volume-sized pieces first, or use --force",
			domain.ErrInsufficientFiles, len(files), n)
	}

	sorted := make([]domain.FileRecord, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Size != sorted[j].Size {
			return sorted[i].Size > sorted[j].Size
		}
		return sorted[i].Path < sorted[j].Path
	})

	groups := make([]domain.Group, n)
	for i := range groups {
		groups[i].Index = i
	}

	for _, f := range sorted {
		groups[p.pickGroup(groups, f.Size, lastFraction)].Append(f)
	}

	// Oversize detection feeds the allocator's feasibility check; a
	// dominant group is not an error until a redundancy budget is
	// evaluated against it.
	avg := domain.AverageDataSize(groups)
	for i := range groups {
		if avg > 0 && float64(groups[i].DataSize) > p.cfg.OversizeThreshold*avg {
			groups[i].Oversized = true
			logger.Debug("Group %d is oversized: %d bytes vs %.0f average", i, groups[i].DataSize, avg)
		}
	}

	return groups, nil
}

// pickGroup returns the group index where adding size overshoots the
// current maximum the least. The last group's size is compared scaled
// by lastFraction.
func (p *Partitioner) pickGroup(groups []domain.Group, size int64, lastFraction float64) int {
	n := len(groups)
	if n == 1 {
		return 0
	}

	adjustedLast := float64(groups[n-1].DataSize) / lastFraction
	maxSize := adjustedLast
	for i := 0; i < n-1; i++ {
		if s := float64(groups[i].DataSize); s > maxSize {
			maxSize = s
		}
	}

	best := 0
	bestOvershoot := float64(size) - (maxSize - float64(groups[0].DataSize))
	for i := 1; i < n-1; i++ {
		overshoot := float64(size) - (maxSize - float64(groups[i].DataSize))
		if overshoot < bestOvershoot {
			best = i
			bestOvershoot = overshoot
		}
	}
	if overshoot := lastOvershoot(float64(size), maxSize, float64(groups[n-1].DataSize), lastFraction); overshoot < bestOvershoot {
		best = n - 1
	}
	return best
}

// lastOvershoot computes the overshoot of placing a file in the final,
// fraction-sized group, rescaled to be comparable with the full groups.
func lastOvershoot(size, maxSize, lastSize, fraction float64) float64 {
	spaceLeft := maxSize*fraction - lastSize
	overshoot := size - spaceLeft
	if overshoot < 0 {
		return overshoot
	}
	return overshoot / fraction
}
