package domain

// Default tunables. A group holding more than about 110% of the average
// is too skewed for a modest redundancy budget to cover its loss, which
// is why the threshold sits just above 1.
const (
	DefaultOversizeThreshold = 1.10
	DefaultRedundancy        = 1.1
	DefaultMaxFiles          = 6000
	DefaultSizeTolerance     = 0.05
)

// Config carries the tunables shared by the partitioner and allocator.
// A zero CapacityBytes means no per-medium capacity limit is enforced.
type Config struct {
	// CapacityBytes is the capacity of one medium. Zero disables the
	// capacity portion of the feasibility check.
	CapacityBytes int64

	// OversizeThreshold flags a group as oversized when its data size
	// exceeds this fraction of the average group size.
	OversizeThreshold float64

	// MaxFiles caps the number of input files per run.
	MaxFiles int

	// SizeTolerance is the accepted relative deviation between the
	// redundancy bytes requested from the generator and the bytes it
	// actually produced.
	SizeTolerance float64

	// Recursive scans the input directory tree instead of only its
	// top level.
	Recursive bool

	// Force continues past the feasibility and input-sanity checks
	// that would otherwise stop the run.
	Force bool
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		OversizeThreshold: DefaultOversizeThreshold,
		MaxFiles:          DefaultMaxFiles,
		SizeTolerance:     DefaultSizeTolerance,
	}
}
