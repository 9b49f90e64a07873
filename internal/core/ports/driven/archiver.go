package driven

import "context"

// Archiver compresses and optionally encrypts one file into an archive.
// When an archiver is configured, the size inventory measures the archive
// outputs rather than the original files.
type Archiver interface {
	// Archive writes an archive of src into destDir and returns the
	// archive path. A non-empty passphrase enables encryption.
	Archive(ctx context.Context, src, destDir, passphrase string) (string, error)
}
