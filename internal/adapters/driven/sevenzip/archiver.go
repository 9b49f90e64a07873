// Package sevenzip compresses and encrypts files by shelling out to the
// 7z command-line tool. Requires the 7z binary on PATH.
package sevenzip

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

// Ensure Archiver implements the interface.
var _ driven.Archiver = (*Archiver)(nil)

// runCommand executes the external tool. Swapped out in tests.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Archiver wraps 7z to produce one .7z archive per input file.
type Archiver struct {
	binary string
	tmpDir string
}

// New returns an archiver using the 7z binary found on PATH. tmpDir, when
// non-empty, is passed to 7z as its working directory for intermediate
// data.
func New(tmpDir string) *Archiver {
	return &Archiver{binary: "7z", tmpDir: tmpDir}
}

// Archive compresses src into destDir as <name>.7z and returns the
// archive path. A non-empty passphrase enables 7z's AES encryption.
func (a *Archiver) Archive(ctx context.Context, src, destDir, passphrase string) (string, error) {
	out := filepath.Join(destDir, filepath.Base(src)+".7z")

	args := []string{"a"}
	if passphrase != "" {
		args = append(args, "-p"+passphrase)
	}
	if a.tmpDir != "" {
		args = append(args, "-w"+a.tmpDir)
	}
	args = append(args, "--", out, src)

	if err := runCommand(ctx, a.binary, args...); err != nil {
		return "", fmt.Errorf("7z a %s: %w", filepath.Base(src), err)
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("7z reported success but wrote no archive: %w", err)
	}
	return out, nil
}
