package checksum

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestMD5_WriteSums(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.dat", "world")
	writeFile(t, dir, "a.dat", "hello")

	path, err := New().WriteSums(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SumFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// md5sum format, sorted by name. Digests are the well-known MD5s of
	// "hello" and "world".
	assert.Equal(t,
		"5d41402abc4b2a76b9719d911017c592  a.dat\n"+
			"7d793037a0760186574b0282f2f435e7  b.dat\n",
		string(data))
}

func TestMD5_WriteSums_ExcludesItself(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dat", "hello")

	_, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	// A second write must not include MD5SUM in its own listing.
	path, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), SumFileName)
}

func TestMD5_VerifySums_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dat", "hello")
	writeFile(t, dir, "b.dat", "world")

	_, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	assert.NoError(t, New().VerifySums(context.Background(), dir))
}

func TestMD5_VerifySums_DetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dat", "hello")

	_, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	writeFile(t, dir, "a.dat", "hellO")

	err = New().VerifySums(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch for a.dat")
}

func TestMD5_VerifySums_DetectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dat", "hello")

	_, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "a.dat")))

	assert.Error(t, New().VerifySums(context.Background(), dir))
}

func TestMD5_VerifySums_DetectsUnlistedFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dat", "hello")

	_, err := New().WriteSums(context.Background(), dir)
	require.NoError(t, err)

	writeFile(t, dir, "intruder.dat", "surprise")

	err = New().VerifySums(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not listed")
}

func TestMD5_VerifySums_NoChecksumFile(t *testing.T) {
	assert.Error(t, New().VerifySums(context.Background(), t.TempDir()))
}
