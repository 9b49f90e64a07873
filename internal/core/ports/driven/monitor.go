package driven

// InputMonitor watches the input directory while a run is in flight.
// Redundancy generation can take hours; files changed underneath it make
// the written checksums stale, so mutations are collected and surfaced
// as warnings in the run result.
type InputMonitor interface {
	// Start begins watching path.
	Start(path string) error

	// Mutations returns the paths changed since Start, deduplicated.
	Mutations() []string

	// Close stops watching.
	Close() error
}
