package par2

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/logger"
)

// Ensure Verifier implements the interface.
var _ driven.RecoveryVerifier = (*Verifier)(nil)

// runVerify executes the external tool and returns its exit code.
// Swapped out in tests.
var runVerify = func(ctx context.Context, dir, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return 0, err
	}
	return 0, nil
}

// Verifier proves single-volume-loss restorability with "par2 verify".
type Verifier struct {
	binary string
}

// NewVerifier returns a verifier that invokes the par2 binary found on
// PATH.
func NewVerifier() *Verifier {
	return &Verifier{binary: "par2"}
}

// VerifyWithout symlinks every file from the surviving volumes into a
// scratch directory and runs par2 verify against each recovery set found
// there. Exit code 0 means nothing is missing, 1 means recovery is
// possible; anything else fails the check.
func (v *Verifier) VerifyWithout(ctx context.Context, workDir string, volumeDirs []string, missing int) error {
	testDir, err := os.MkdirTemp(workDir, fmt.Sprintf("without_%d_", missing+1))
	if err != nil {
		return fmt.Errorf("creating scratch directory: %w", err)
	}
	defer os.RemoveAll(testDir)

	for i, dir := range volumeDirs {
		if i == missing {
			continue
		}
		if err := linkContents(dir, testDir); err != nil {
			return err
		}
	}

	indexes, err := indexFiles(testDir)
	if err != nil {
		return err
	}
	if len(indexes) == 0 {
		return fmt.Errorf("no recovery sets survive without volume %d", missing+1)
	}

	for _, index := range indexes {
		code, err := runVerify(ctx, testDir, v.binary, "verify", "--", index)
		if err != nil {
			return fmt.Errorf("par2 verify: %w", err)
		}
		switch code {
		case 0:
			logger.Debug("Volume %d absent: %s intact, no recovery needed", missing+1, index)
		case 1:
			logger.Debug("Volume %d absent: %s recoverable", missing+1, index)
		default:
			return fmt.Errorf("recovery set %s is not restorable without volume %d (par2 exit code %d)",
				index, missing+1, code)
		}
	}
	return nil
}

// linkContents symlinks every entry of src into dest, skipping names that
// already exist there.
func linkContents(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	for _, e := range entries {
		target, err := filepath.Abs(filepath.Join(src, e.Name()))
		if err != nil {
			return err
		}
		link := filepath.Join(dest, e.Name())
		if _, err := os.Lstat(link); err == nil {
			continue
		}
		if err := os.Symlink(target, link); err != nil {
			return fmt.Errorf("linking %s: %w", e.Name(), err)
		}
	}
	return nil
}

// indexFiles returns the par2 index files in dir, excluding the numbered
// volume files that carry the recovery blocks themselves.
func indexFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var indexes []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".par2") && !strings.Contains(name, ".vol") {
			indexes = append(indexes, name)
		}
	}
	return indexes, nil
}
