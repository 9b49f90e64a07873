package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/core/ports/driving"
)

// mockGenerator writes deterministic artifacts of exactly the requested
// size, split into two files per group.
type mockGenerator struct {
	mu       sync.Mutex
	calls    int
	failWith error
	shortfal bool
}

func (m *mockGenerator) Name() string { return "mock" }

func (m *mockGenerator) Generate(_ context.Context, req driven.GenerateRequest) ([]domain.Artifact, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	total := req.TargetBytes
	if m.shortfal {
		total /= 4
	}
	sizes := []int64{total / 2, total - total/2}

	var artifacts []domain.Artifact
	for i, size := range sizes {
		path := filepath.Join(req.Dir, fmt.Sprintf("recovery-g%d.vol%d.par2", req.GroupIndex, i))
		if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
			return nil, err
		}
		artifacts = append(artifacts, domain.Artifact{OriginGroup: req.GroupIndex, Path: path, Size: size})
	}
	return artifacts, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockChecksummer writes an empty MD5SUM file and counts verifications.
type mockChecksummer struct {
	writes   int
	verifies int
}

func (m *mockChecksummer) WriteSums(_ context.Context, dir string) (string, error) {
	m.writes++
	path := filepath.Join(dir, "MD5SUM")
	return path, os.WriteFile(path, []byte{}, 0o644)
}

func (m *mockChecksummer) VerifySums(_ context.Context, _ string) error {
	m.verifies++
	return nil
}

// mockVerifier records which volumes were checked as missing.
type mockVerifier struct {
	missing []int
}

func (m *mockVerifier) VerifyWithout(_ context.Context, _ string, _ []string, missing int) error {
	m.missing = append(m.missing, missing)
	return nil
}

// mockMonitor reports a fixed set of mutations.
type mockMonitor struct {
	started   string
	mutations []string
}

func (m *mockMonitor) Start(path string) error { m.started = path; return nil }
func (m *mockMonitor) Mutations() []string     { return m.mutations }
func (m *mockMonitor) Close() error            { return nil }

// mockRunStore keeps records in memory.
type mockRunStore struct {
	records []domain.RunRecord
}

func (m *mockRunStore) Record(_ context.Context, rec domain.RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRunStore) List(_ context.Context) ([]domain.RunRecord, error) {
	return m.records, nil
}

func (m *mockRunStore) Close() error { return nil }

// mockArchiver copies the input with a .7z suffix, halving its size.
type mockArchiver struct {
	passphrases []string
}

func (m *mockArchiver) Archive(_ context.Context, src, destDir, passphrase string) (string, error) {
	m.passphrases = append(m.passphrases, passphrase)
	data, err := os.ReadFile(src)
	if err != nil {
		return "", err
	}
	out := filepath.Join(destDir, filepath.Base(src)+".7z")
	return out, os.WriteFile(out, data[:len(data)/2], 0o644)
}

func inputDir(t *testing.T, sizes ...int) string {
	t.Helper()
	dir := t.TempDir()
	for i, size := range sizes {
		writeFile(t, dir, fmt.Sprintf("file%02d.dat", i), size)
	}
	return dir
}

func newTestPipeline(cfg domain.Config, gen driven.RedundancyGenerator) (*PipelineService, *mockChecksummer) {
	sums := &mockChecksummer{}
	return NewPipelineService(cfg, gen, sums, nil, nil, nil, nil), sums
}

func baseRequest(in, out string, volumes int, redundancy float64) driving.RunRequest {
	return driving.RunRequest{
		InDir:      in,
		OutDir:     out,
		Prefix:     "backup ",
		Volumes:    volumes,
		Redundancy: redundancy,
	}
}

func TestPipeline_Run(t *testing.T) {
	in := inputDir(t, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	pipe, sums := newTestPipeline(domain.DefaultConfig(), gen)

	result, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.5))
	require.NoError(t, err)

	assert.Equal(t, 3, gen.callCount())
	assert.Equal(t, 3, sums.writes)
	assert.Equal(t, int64(9000), result.TotalBytes)
	assert.InDelta(t, 3000*1.5, float64(result.RedundancyBytes), 10)
	require.Len(t, result.Volumes, 3)

	for i, vol := range result.Volumes {
		dir := filepath.Join(out, fmt.Sprintf("backup %d", i+1))
		assert.Equal(t, dir, vol.Dir)
		assert.Equal(t, 3, vol.Files)
		assert.DirExists(t, dir)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)

		// Each volume holds its data files, a checksum file and other
		// groups' redundancy but never its own.
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".par2") {
				assert.NotContainsf(t, entry.Name(), fmt.Sprintf("recovery-g%d.", i),
					"volume %d holds its own redundancy", i+1)
			}
		}
	}

	// Staging is cleaned up: the output dir contains the volumes only.
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestPipeline_Run_ZeroRedundancy(t *testing.T) {
	// Seven equal files over seven volumes with no budget: one file per
	// volume and the generator is never invoked.
	in := inputDir(t, 700, 700, 700, 700, 700, 700, 700)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	result, err := pipe.Run(context.Background(), baseRequest(in, out, 7, 0))
	require.NoError(t, err)

	assert.Zero(t, gen.callCount())
	assert.Zero(t, result.RedundancyBytes)
	for _, vol := range result.Volumes {
		assert.Equal(t, 1, vol.Files)
	}
}

func TestPipeline_Run_InsufficientFiles(t *testing.T) {
	in := inputDir(t, 100, 100, 100)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	_, err := pipe.Run(context.Background(), baseRequest(in, out, 5, 1.1))

	assert.ErrorIs(t, err, domain.ErrInsufficientFiles)
	assert.Zero(t, gen.callCount())
	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries, "no volume directory may exist after a failed run")
}

func TestPipeline_Run_InfeasibleBeforeGeneration(t *testing.T) {
	// One dominant file: the analytical check must refuse before the
	// slow generator is ever invoked.
	sizes := []int{200_000}
	for i := 0; i < 10; i++ {
		sizes = append(sizes, 5_000)
	}
	in := inputDir(t, sizes...)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	_, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.1))

	assert.ErrorIs(t, err, domain.ErrInfeasibleRedundancy)
	assert.Zero(t, gen.callCount())
}

func TestPipeline_Run_ForcedPastInfeasible(t *testing.T) {
	sizes := []int{200_000}
	for i := 0; i < 10; i++ {
		sizes = append(sizes, 5_000)
	}
	in := inputDir(t, sizes...)
	out := filepath.Join(t.TempDir(), "out")
	cfg := domain.DefaultConfig()
	cfg.Force = true
	gen := &mockGenerator{}
	pipe, _ := newTestPipeline(cfg, gen)

	_, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.1))

	require.NoError(t, err)
	assert.Equal(t, 3, gen.callCount())
}

func TestPipeline_Run_GeneratorFailure(t *testing.T) {
	in := inputDir(t, 1000, 1000, 1000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{failWith: fmt.Errorf("par2 exited with status 2")}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	_, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.0))

	assert.ErrorIs(t, err, domain.ErrExternalTool)
}

func TestPipeline_Run_GeneratorSizeMismatch(t *testing.T) {
	in := inputDir(t, 500_000, 500_000, 500_000, 500_000, 500_000, 500_000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{shortfal: true}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	_, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.0))

	assert.ErrorIs(t, err, domain.ErrExternalTool)
}

func TestPipeline_Run_WithArchiver(t *testing.T) {
	in := inputDir(t, 2000, 2000, 2000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	sums := &mockChecksummer{}
	arch := &mockArchiver{}
	pipe := NewPipelineService(domain.DefaultConfig(), gen, sums, arch, nil, nil, nil)

	req := baseRequest(in, out, 3, 0)
	req.Compress = true
	req.Passphrase = "secret"

	result, err := pipe.Run(context.Background(), req)
	require.NoError(t, err)

	// Archive outputs (half size) drive the partition, not the inputs.
	assert.Equal(t, int64(3000), result.TotalBytes)
	assert.Equal(t, []string{"secret", "secret", "secret"}, arch.passphrases)
	for _, vol := range result.Volumes {
		entries, err := os.ReadDir(vol.Dir)
		require.NoError(t, err)
		archived := 0
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".7z") {
				archived++
			}
		}
		assert.Equal(t, 1, archived)
	}
}

func TestPipeline_Run_CompressionWithoutArchiver(t *testing.T) {
	in := inputDir(t, 100, 100, 100)
	pipe, _ := newTestPipeline(domain.DefaultConfig(), &mockGenerator{})

	req := baseRequest(in, filepath.Join(t.TempDir(), "out"), 3, 0)
	req.Compress = true

	_, err := pipe.Run(context.Background(), req)

	assert.ErrorContains(t, err, "no archiver configured")
}

func TestPipeline_Run_Verify(t *testing.T) {
	in := inputDir(t, 1000, 1000, 1000, 1000, 1000, 1000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	sums := &mockChecksummer{}
	verifier := &mockVerifier{}
	pipe := NewPipelineService(domain.DefaultConfig(), gen, sums, nil, verifier, nil, nil)

	req := baseRequest(in, out, 3, 1.0)
	req.Verify = true

	result, err := pipe.Run(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Verified)
	assert.Equal(t, []int{0, 1, 2}, verifier.missing)
}

func TestPipeline_Run_RecordsRunAndMutations(t *testing.T) {
	in := inputDir(t, 1000, 1000, 1000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	sums := &mockChecksummer{}
	monitor := &mockMonitor{mutations: []string{filepath.Join(in, "file00.dat")}}
	store := &mockRunStore{}
	pipe := NewPipelineService(domain.DefaultConfig(), gen, sums, nil, nil, monitor, store)

	result, err := pipe.Run(context.Background(), baseRequest(in, out, 3, 1.0))
	require.NoError(t, err)

	assert.Equal(t, in, monitor.started)
	assert.Equal(t, monitor.mutations, result.InputMutations)

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, result.RunID, rec.ID)
	assert.Equal(t, 3, rec.Volumes)
	assert.Equal(t, "mock", rec.Generator)
	assert.Equal(t, result.TotalBytes, rec.TotalBytes)
}

func TestPipeline_Plan(t *testing.T) {
	in := inputDir(t, 1000, 2000, 3000, 4000, 5000, 6000)
	out := filepath.Join(t.TempDir(), "out")
	gen := &mockGenerator{}
	pipe, _ := newTestPipeline(domain.DefaultConfig(), gen)

	plan, err := pipe.Plan(context.Background(), baseRequest(in, out, 3, 1.5))
	require.NoError(t, err)

	assert.Len(t, plan.Groups, 3)
	assert.True(t, plan.Plan.Feasible)
	assert.Empty(t, plan.Findings)

	// A plan is read-only: nothing external invoked, nothing written.
	assert.Zero(t, gen.callCount())
	assert.NoDirExists(t, out)
}

func TestPipeline_Plan_ReportsFindings(t *testing.T) {
	sizes := []int{200_000}
	for i := 0; i < 10; i++ {
		sizes = append(sizes, 5_000)
	}
	in := inputDir(t, sizes...)
	pipe, _ := newTestPipeline(domain.DefaultConfig(), &mockGenerator{})

	plan, err := pipe.Plan(context.Background(), baseRequest(in, filepath.Join(t.TempDir(), "out"), 3, 1.1))
	require.NoError(t, err)

	assert.False(t, plan.Plan.Feasible)
	assert.NotEmpty(t, plan.Findings)
}

func TestPipeline_VerifyLayout(t *testing.T) {
	out := t.TempDir()
	for i := 1; i <= 3; i++ {
		dir := filepath.Join(out, fmt.Sprintf("backup %d", i))
		require.NoError(t, os.Mkdir(dir, 0o755))
		writeFile(t, dir, "data.bin", 10)
	}

	gen := &mockGenerator{}
	sums := &mockChecksummer{}
	verifier := &mockVerifier{}
	pipe := NewPipelineService(domain.DefaultConfig(), gen, sums, nil, verifier, nil, nil)

	err := pipe.VerifyLayout(context.Background(), out, "backup ")
	require.NoError(t, err)

	assert.Equal(t, 3, sums.verifies)
	assert.Equal(t, []int{0, 1, 2}, verifier.missing)
}

func TestPipeline_VerifyLayout_NoVolumes(t *testing.T) {
	pipe, _ := newTestPipeline(domain.DefaultConfig(), &mockGenerator{})

	err := pipe.VerifyLayout(context.Background(), t.TempDir(), "backup ")

	assert.ErrorContains(t, err, "no volume directories")
}

func TestPipeline_Runs(t *testing.T) {
	store := &mockRunStore{records: []domain.RunRecord{{ID: "abc"}}}
	pipe := NewPipelineService(domain.DefaultConfig(), &mockGenerator{}, &mockChecksummer{}, nil, nil, nil, store)

	runs, err := pipe.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	pipe = NewPipelineService(domain.DefaultConfig(), &mockGenerator{}, &mockChecksummer{}, nil, nil, nil, nil)
	_, err = pipe.Runs(context.Background())
	assert.ErrorContains(t, err, "not configured")
}
