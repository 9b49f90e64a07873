package domain

import (
	"path/filepath"
	"regexp"
)

// FileRecord represents one input file measured by the size inventory.
// Records are immutable once created; a rerun rebuilds the inventory
// from the current file set.
type FileRecord struct {
	// Path is the absolute path of the file.
	Path string

	// Size is the file size in bytes.
	Size int64
}

// Name returns the base name of the file.
func (f FileRecord) Name() string {
	return filepath.Base(f.Path)
}

// TotalSize returns the sum of all record sizes.
func TotalSize(files []FileRecord) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// ignoredNames matches file names that are never part of a backup set.
var ignoredNames = []*regexp.Regexp{
	regexp.MustCompile(`^\.DS_Store$`),
}

// IsIgnoredName returns true for file names excluded from the inventory.
func IsIgnoredName(name string) bool {
	for _, re := range ignoredNames {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
