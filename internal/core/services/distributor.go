package services

import (
	"fmt"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/logger"
)

// Distributor relocates redundancy artifacts so that no group's medium
// holds the redundancy protecting its own data. Redundancy that shares
// a medium with the data it protects dies with that medium; spreading
// each group's artifacts over the other N-1 groups is what makes the
// loss of any single volume survivable.
type Distributor struct {
	cfg domain.Config
}

// NewDistributor creates a distributor with the given configuration.
func NewDistributor(cfg domain.Config) *Distributor {
	return &Distributor{cfg: cfg}
}

// Distribute assigns every artifact a destination group. artifacts is
// indexed by origin group. For origin g the rotation starts at
// (g+1) mod N and bytes are split as evenly as the artifact sizes
// allow; ties follow the rotation order, so the assignment is
// deterministic. Destinations never equal the origin.
//
// When a medium capacity is configured the incoming bytes per group are
// checked against the space the allocator left; a breach means the
// feasibility check was unsound and surfaces as ErrCapacityExceeded.
func (d *Distributor) Distribute(groups []domain.Group, artifacts [][]domain.Artifact) ([]domain.Placement, error) {
	n := len(groups)
	if len(artifacts) != n {
		return nil, fmt.Errorf("artifact sets (%d) do not match group count (%d)", len(artifacts), n)
	}
	if n < 2 {
		for _, set := range artifacts {
			if len(set) > 0 {
				return nil, fmt.Errorf("cannot distribute redundancy with fewer than 2 groups")
			}
		}
		return nil, nil
	}

	incoming := make([]int64, n)
	var placements []domain.Placement

	for origin := 0; origin < n; origin++ {
		// Bytes of this origin's redundancy already assigned per
		// destination, to keep the split even.
		assigned := make([]int64, n)
		for _, art := range artifacts[origin] {
			dest := -1
			var destLoad int64
			for step := 1; step < n; step++ {
				candidate := (origin + step) % n
				if dest == -1 || assigned[candidate] < destLoad {
					dest = candidate
					destLoad = assigned[candidate]
				}
			}

			assigned[dest] += art.Size
			incoming[dest] += art.Size
			placements = append(placements, domain.Placement{Artifact: art, Dest: dest})
		}
	}

	if d.cfg.CapacityBytes > 0 {
		for i := range groups {
			if groups[i].DataSize+incoming[i] > d.cfg.CapacityBytes {
				return nil, fmt.Errorf("%w: group %d would hold %d data + %d redundancy bytes, medium holds %d",
					domain.ErrCapacityExceeded, i, groups[i].DataSize, incoming[i], d.cfg.CapacityBytes)
			}
		}
	}

	logger.Debug("Distributed %d artifacts across %d groups", len(placements), n)
	return placements, nil
}
