package domain

import "time"

// RunRecord summarises one completed run for the local catalog.
type RunRecord struct {
	// ID is the run identifier (the staging directory's UUID suffix).
	ID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// Volumes is the number of volume directories produced.
	Volumes int

	// Redundancy is the requested budget in media counts.
	Redundancy float64

	// TotalBytes is the data written across all volumes, excluding
	// redundancy.
	TotalBytes int64

	// RedundancyBytes is the redundancy data written across all volumes.
	RedundancyBytes int64

	// OutDir is where the volume directories were created.
	OutDir string

	// Generator names the redundancy generator used.
	Generator string

	// Verified reports whether the single-volume-loss check passed.
	Verified bool
}
