package sevenzip

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRun struct {
	name string
	args []string
	err  error
	skip bool // do not create the output file
}

func (f *fakeRun) run(_ context.Context, name string, args ...string) error {
	f.name = name
	f.args = args
	if f.err != nil {
		return f.err
	}
	if !f.skip {
		// Output path is the argument after "--".
		for i, a := range args {
			if a == "--" && i+1 < len(args) {
				return os.WriteFile(args[i+1], []byte("archive"), 0o644)
			}
		}
	}
	return nil
}

func setupArchiverTest(t *testing.T) *fakeRun {
	t.Helper()
	fake := &fakeRun{}
	orig := runCommand
	runCommand = fake.run
	t.Cleanup(func() { runCommand = orig })
	return fake
}

func TestArchiver_Archive(t *testing.T) {
	fake := setupArchiverTest(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))
	dest := t.TempDir()

	out, err := New("").Archive(context.Background(), src, dest, "")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "report.pdf.7z"), out)
	assert.Equal(t, "7z", fake.name)
	assert.Equal(t, "a", fake.args[0])
	assert.Contains(t, fake.args, src)
	for _, a := range fake.args {
		assert.NotContains(t, a, "-p", "no passphrase flag expected")
	}
}

func TestArchiver_Archive_WithPassphraseAndTmpDir(t *testing.T) {
	fake := setupArchiverTest(t)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0o644))

	_, err := New("/scratch").Archive(context.Background(), src, t.TempDir(), "hunter2!")

	require.NoError(t, err)
	assert.Contains(t, fake.args, "-phunter2!")
	assert.Contains(t, fake.args, "-w/scratch")
	// Flags come before the -- separator so 7z never parses them as
	// file names.
	sep := -1
	for i, a := range fake.args {
		if a == "--" {
			sep = i
		}
	}
	require.GreaterOrEqual(t, sep, 1)
	assert.Contains(t, fake.args[:sep], "-phunter2!")
}

func TestArchiver_Archive_CommandFailure(t *testing.T) {
	fake := setupArchiverTest(t)
	fake.err = errors.New("exit status 2")

	_, err := New("").Archive(context.Background(), "/in/a.dat", t.TempDir(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "7z a")
}

func TestArchiver_Archive_NoOutputWritten(t *testing.T) {
	fake := setupArchiverTest(t)
	fake.skip = true

	_, err := New("").Archive(context.Background(), "/in/a.dat", t.TempDir(), "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrote no archive")
}
