package services

import (
	"fmt"
	"math"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/logger"
)

// Allocator computes per-group redundancy byte targets and validates
// that the requested budget is attainable. The feasibility check is
// pure arithmetic over sizes and runs before any external generator is
// invoked, so an infeasible configuration fails in milliseconds instead
// of after hours of generation.
type Allocator struct {
	cfg domain.Config
}

// NewAllocator creates an allocator with the given configuration.
func NewAllocator(cfg domain.Config) *Allocator {
	return &Allocator{cfg: cfg}
}

// Allocate computes each group's redundancy target for a budget of
// redundancy media out of totalMedia. It sets RedundancySize on the
// groups and returns the plan together with any feasibility findings.
// All findings are collected before returning so the user sees every
// problem at once. An error is returned only for invalid input.
func (a *Allocator) Allocate(groups []domain.Group, redundancy float64, totalMedia int) (*domain.RedundancyPlan, *domain.Findings, error) {
	if len(groups) == 0 {
		return nil, nil, fmt.Errorf("no groups to allocate for")
	}
	if redundancy < 0 {
		return nil, nil, fmt.Errorf("redundancy must be non-negative, got %g", redundancy)
	}

	plan := &domain.RedundancyPlan{
		Redundancy: redundancy,
		TotalMedia: totalMedia,
		Targets:    make([]int64, len(groups)),
		Headroom:   make([]int64, len(groups)),
	}
	findings := &domain.Findings{}

	if redundancy > float64(totalMedia-1) {
		findings.Add("cannot dedicate %g of %d volumes to redundancy, at least one must hold data", redundancy, totalMedia)
	}

	avg := domain.AverageDataSize(groups)
	if redundancy > 0 && avg > 0 {
		// Base share per group, scaled so larger groups receive
		// proportionally more redundancy headroom. The sum across
		// groups stays within rounding of avg * redundancy.
		base := avg * redundancy / float64(totalMedia)
		for i := range groups {
			target := int64(math.Ceil(base * float64(groups[i].DataSize) / avg))
			plan.Targets[i] = target
			groups[i].RedundancySize = target
		}
	}

	for i := range groups {
		plan.Headroom[i] = -1
		if a.cfg.CapacityBytes > 0 {
			need := groups[i].DataSize + plan.Targets[i]
			plan.Headroom[i] = a.cfg.CapacityBytes - need
			if need > a.cfg.CapacityBytes {
				findings.Add("group %d needs %d bytes (data %d + redundancy %d) but the medium holds %d",
					i, need, groups[i].DataSize, plan.Targets[i], a.cfg.CapacityBytes)
			}
		}
		if redundancy > 0 && groups[i].Oversized {
			findings.Add("group %d holds %d bytes against an average of %.0f; the input sizes are too skewed for a redundancy of %g volumes to cover its loss - split the large files or raise the budget",
				i, groups[i].DataSize, avg, redundancy)
		}
	}

	plan.Feasible = findings.Empty()
	if !plan.Feasible {
		logger.Warn("Redundancy plan infeasible: %d problem(s)", len(findings.Problems()))
	} else {
		logger.Debug("Allocated %d redundancy bytes across %d groups", plan.TotalTarget(), len(groups))
	}
	return plan, findings, nil
}

// WithinTolerance reports whether the generator produced an acceptable
// amount of redundancy for the requested target.
func (a *Allocator) WithinTolerance(target, produced int64) bool {
	if target == 0 {
		return produced == 0
	}
	allowed := a.cfg.SizeTolerance * float64(target)
	// Block-oriented generators pad to whole blocks; permit at least
	// one block of slack either way.
	if allowed < 1<<16 {
		allowed = 1 << 16
	}
	return math.Abs(float64(produced-target)) <= allowed
}
