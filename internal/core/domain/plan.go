package domain

// RedundancyPlan holds the allocator's per-group redundancy targets.
// A plan is derived entirely from group sizes and the requested budget;
// if the inputs change it is recomputed, never patched.
type RedundancyPlan struct {
	// Redundancy is the requested budget expressed in media counts,
	// e.g. 1.5 means one and a half volumes out of TotalMedia.
	Redundancy float64

	// TotalMedia is the number of volumes, N.
	TotalMedia int

	// Targets holds the redundancy byte target per group, indexed by
	// group index.
	Targets []int64

	// Headroom is the remaining capacity per group in bytes after data
	// and the group's own redundancy target are accounted for. Only
	// meaningful when a medium capacity is configured; -1 per group
	// means unlimited.
	Headroom []int64

	// Feasible reports whether the plan passed the analytical
	// feasibility check.
	Feasible bool
}

// TotalTarget returns the sum of all per-group redundancy targets.
func (p *RedundancyPlan) TotalTarget() int64 {
	var total int64
	for _, t := range p.Targets {
		total += t
	}
	return total
}

// Artifact is one piece of generated redundancy data for a group.
// After distribution its storage location is decoupled from the group
// whose data it protects.
type Artifact struct {
	// OriginGroup is the group whose data this artifact protects.
	OriginGroup int

	// Path is the artifact's current on-disk location.
	Path string

	// Size is the artifact size in bytes.
	Size int64
}

// Placement assigns an artifact to a destination group's directory.
// The distributor guarantees Dest != Artifact.OriginGroup.
type Placement struct {
	Artifact Artifact
	Dest     int
}
