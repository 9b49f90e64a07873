// Package checksum writes and verifies per-volume MD5SUM files in the
// format produced by the md5sum utility, so volumes burned to media can
// be checked later with plain "md5sum -c MD5SUM" and no copy of this
// tool. MD5 here detects bit rot and bad burns, not adversaries.
package checksum

import (
	"bufio"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

// SumFileName is the checksum file written into each volume directory.
const SumFileName = "MD5SUM"

// Ensure MD5 implements the interface.
var _ driven.Checksummer = (*MD5)(nil)

// MD5 implements md5sum-compatible checksum files.
type MD5 struct{}

// New returns an MD5 checksummer.
func New() *MD5 {
	return &MD5{}
}

// WriteSums hashes every regular file in dir and writes an MD5SUM file
// there, returning its path. Entries are sorted by name.
func (m *MD5) WriteSums(ctx context.Context, dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name() != SumFileName {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		sum, err := hashFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, name)
	}

	path := filepath.Join(dir, SumFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// VerifySums rehashes every file listed in dir's MD5SUM file and reports
// mismatches and listed-but-missing files. Files present in dir but not
// listed also fail, since a volume must contain exactly what was summed.
func (m *MD5) VerifySums(ctx context.Context, dir string) error {
	f, err := os.Open(filepath.Join(dir, SumFileName))
	if err != nil {
		return fmt.Errorf("opening checksum file: %w", err)
	}
	defer f.Close()

	listed := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		sum, name, ok := strings.Cut(line, "  ")
		if !ok {
			return fmt.Errorf("malformed checksum line %q", line)
		}
		listed[name] = sum
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading checksum file: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || name == SumFileName {
			continue
		}
		if _, ok := listed[name]; !ok {
			return fmt.Errorf("%s is not listed in %s", name, SumFileName)
		}
	}

	var names []string
	for name := range listed {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		sum, err := hashFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if sum != listed[name] {
			return fmt.Errorf("checksum mismatch for %s", name)
		}
	}
	return nil
}

// hashFile returns the lowercase hex MD5 digest of the file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
