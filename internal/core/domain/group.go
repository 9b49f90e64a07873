package domain

// Group is one backup volume's worth of files. Groups are created empty
// by the partitioner and populated by appending file records. Every input
// file belongs to exactly one group.
type Group struct {
	// Index is the zero-based group number.
	Index int

	// Members are the files assigned to this group, in assignment order.
	Members []FileRecord

	// DataSize is the sum of member sizes in bytes.
	DataSize int64

	// RedundancySize is the redundancy byte target assigned by the
	// allocator. Set once after allocation, never revised.
	RedundancySize int64

	// Oversized marks a group whose data size exceeds the configured
	// threshold above the average. The flag feeds the allocator's
	// feasibility check rather than failing partitioning outright.
	Oversized bool
}

// Append adds a file to the group and updates its running size.
func (g *Group) Append(f FileRecord) {
	g.Members = append(g.Members, f)
	g.DataSize += f.Size
}

// TotalDataSize returns the sum of data sizes across groups.
func TotalDataSize(groups []Group) int64 {
	var total int64
	for i := range groups {
		total += groups[i].DataSize
	}
	return total
}

// AverageDataSize returns the mean group data size in bytes.
// Returns 0 for an empty group slice.
func AverageDataSize(groups []Group) float64 {
	if len(groups) == 0 {
		return 0
	}
	return float64(TotalDataSize(groups)) / float64(len(groups))
}
