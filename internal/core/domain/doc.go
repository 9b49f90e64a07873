// Package domain defines the core business entities for create-par2.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - FileRecord: One input file and its size
//   - Group: One backup volume's worth of files
//   - RedundancyPlan: Per-group redundancy targets and feasibility
//   - Artifact: One piece of generated redundancy data
//   - Config: Tunables shared by the partitioner and allocator
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
