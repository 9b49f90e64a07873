package driven

import (
	"context"

	"github.com/maglar0/create-par2/internal/core/domain"
)

// RunStore persists a catalog of completed runs. The catalog lives on
// the machine that ran the tool, never on the backup media; restoring
// from the media must not depend on it.
type RunStore interface {
	// Record stores one completed run.
	Record(ctx context.Context, rec domain.RunRecord) error

	// List returns recorded runs, most recent first.
	List(ctx context.Context) ([]domain.RunRecord, error)

	// Close releases the underlying storage.
	Close() error
}
