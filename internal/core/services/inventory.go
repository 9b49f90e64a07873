package services

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/logger"
)

// Inventory scans an input directory and records each regular file's
// size. Scanning is read-only.
type Inventory struct {
	cfg domain.Config
}

// NewInventory creates a size inventory with the given configuration.
func NewInventory(cfg domain.Config) *Inventory {
	return &Inventory{cfg: cfg}
}

// Scan returns one FileRecord per regular file in dir, sorted by path.
// The scan is non-recursive unless Config.Recursive is set. Ignored
// names (.DS_Store) and non-regular files are skipped.
func (inv *Inventory) Scan(dir string) ([]domain.FileRecord, error) {
	var files []domain.FileRecord

	collect := func(path string, info fs.FileInfo) {
		if !info.Mode().IsRegular() {
			return
		}
		if domain.IsIgnoredName(info.Name()) {
			logger.Debug("Ignoring %s", path)
			return
		}
		files = append(files, domain.FileRecord{Path: path, Size: info.Size()})
	}

	if inv.cfg.Recursive {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			collect(path, info)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", dir, err)
			}
			collect(filepath.Join(dir, entry.Name()), info)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", domain.ErrEmptyInput, dir)
	}
	if inv.cfg.MaxFiles > 0 && len(files) > inv.cfg.MaxFiles {
		return nil, fmt.Errorf("%w: %d files, limit is %d; split the input into smaller directories",
			domain.ErrTooManyFiles, len(files), inv.cfg.MaxFiles)
	}

	// A leftover recovery set protecting an older state of the directory
	// is almost always a mistake to protect again.
	if !inv.cfg.Force {
		for _, f := range files {
			if strings.EqualFold(filepath.Ext(f.Path), ".par2") {
				return nil, fmt.Errorf("input directory already contains recovery files (%s); delete them and start over, or use --force", f.Name())
			}
		}
	}

	logger.Debug("Inventory: %d files, %d bytes total", len(files), domain.TotalSize(files))
	return files, nil
}
