package driven

import "context"

// Checksummer writes and verifies per-volume checksum files. Checksums
// are a verification aid written alongside the output; they play no part
// in allocation.
type Checksummer interface {
	// WriteSums computes digests for every file in dir and writes the
	// checksum file there, returning its path.
	WriteSums(ctx context.Context, dir string) (string, error)

	// VerifySums checks every file in dir against its checksum file.
	VerifySums(ctx context.Context, dir string) error
}
