// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RedundancyGenerator: Produces redundancy data for one group
//     (par2 subprocess, in-process Reed-Solomon, or a fixed-size fake)
//   - Checksummer: Writes and verifies per-volume checksum files
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Archiver: Compresses/encrypts files before partitioning. Without
//     it, files are copied as-is.
//   - RecoveryVerifier: Proves each volume can be lost without data
//     loss. Without it, verification is skipped with a warning.
//   - InputMonitor: Reports input mutation during a long run.
//   - RunStore: Records completed runs in the local catalog.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
