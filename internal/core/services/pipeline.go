package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/core/ports/driving"
	"github.com/maglar0/create-par2/internal/logger"
)

// Ensure PipelineService implements the driving ports.
var (
	_ driving.Pipeline  = (*PipelineService)(nil)
	_ driving.Verifier  = (*PipelineService)(nil)
	_ driving.RunLister = (*PipelineService)(nil)
)

// PipelineService orchestrates a full preparation run: inventory,
// optional archiving, partitioning, redundancy allocation, generation,
// distribution, checksums and verification.
type PipelineService struct {
	cfg         domain.Config
	inventory   *Inventory
	partitioner *Partitioner
	allocator   *Allocator
	distributor *Distributor

	archiver  driven.Archiver
	generator driven.RedundancyGenerator
	checksums driven.Checksummer
	verifier  driven.RecoveryVerifier
	monitor   driven.InputMonitor
	runStore  driven.RunStore
}

// NewPipelineService creates the pipeline. The generator and checksummer
// are required; archiver, verifier, monitor and runStore are optional
// and may be nil, disabling the corresponding step.
func NewPipelineService(
	cfg domain.Config,
	generator driven.RedundancyGenerator,
	checksums driven.Checksummer,
	archiver driven.Archiver,
	verifier driven.RecoveryVerifier,
	monitor driven.InputMonitor,
	runStore driven.RunStore,
) *PipelineService {
	return &PipelineService{
		cfg:         cfg,
		inventory:   NewInventory(cfg),
		partitioner: NewPartitioner(cfg),
		allocator:   NewAllocator(cfg),
		distributor: NewDistributor(cfg),
		archiver:    archiver,
		generator:   generator,
		checksums:   checksums,
		verifier:    verifier,
		monitor:     monitor,
		runStore:    runStore,
	}
}

// Plan performs the analytical part of a run: inventory, partition,
// allocation and the feasibility check. Nothing is written and no
// external tool is invoked.
func (s *PipelineService) Plan(_ context.Context, req driving.RunRequest) (*driving.PlanResult, error) {
	files, err := s.inventory.Scan(req.InDir)
	if err != nil {
		return nil, err
	}

	groups, err := s.partitioner.Partition(files, req.Volumes, 1)
	if err != nil {
		return nil, err
	}

	plan, findings, err := s.allocator.Allocate(groups, req.Redundancy, req.Volumes)
	if err != nil {
		return nil, err
	}

	return &driving.PlanResult{
		Groups:   groups,
		Plan:     plan,
		Findings: findings.Problems(),
	}, nil
}

// Run executes the full pipeline. A failed run leaves no committed
// volume directories; rerunning starts from a clean state.
func (s *PipelineService) Run(ctx context.Context, req driving.RunRequest) (*driving.RunResult, error) {
	started := time.Now()

	files, err := s.inventory.Scan(req.InDir)
	if err != nil {
		return nil, err
	}

	// Fail fast: prove feasibility from the raw sizes before touching
	// the disk or any external tool. Compression changes the sizes, so
	// the authoritative allocation happens again after staging.
	if err := s.precheck(files, req); err != nil {
		return nil, err
	}

	if s.monitor != nil {
		if err := s.monitor.Start(req.InDir); err != nil {
			logger.Warn("Cannot watch input directory: %v", err)
		} else {
			defer s.monitor.Close()
		}
	}

	runID := uuid.New().String()
	staging, err := s.makeStaging(req, runID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(staging)

	result := &driving.RunResult{RunID: runID}

	// Stage: archive or copy every input file into the staging root.
	archiveStart := time.Now()
	staged, err := s.stage(ctx, files, staging, req)
	if err != nil {
		return nil, err
	}
	result.Timings.Archive = time.Since(archiveStart)

	// Authoritative partition and allocation over the staged sizes.
	groups, err := s.partitioner.Partition(staged, req.Volumes, 1)
	if err != nil {
		return nil, err
	}
	plan, findings, err := s.allocator.Allocate(groups, req.Redundancy, req.Volumes)
	if err != nil {
		return nil, err
	}
	if err := s.applyFindings(findings); err != nil {
		return nil, err
	}

	volDirs, err := s.layoutGroups(staging, groups)
	if err != nil {
		return nil, err
	}

	generateStart := time.Now()
	artifacts, err := s.generate(ctx, groups, plan, volDirs, req)
	if err != nil {
		return nil, err
	}
	result.Timings.Generate = time.Since(generateStart)

	placements, err := s.distributor.Distribute(groups, artifacts)
	if err != nil {
		return nil, err
	}
	if err := relocate(placements, volDirs); err != nil {
		return nil, err
	}

	finalDirs, err := s.commit(req, volDirs)
	if err != nil {
		return nil, err
	}

	checksumStart := time.Now()
	for _, dir := range finalDirs {
		if _, err := s.checksums.WriteSums(ctx, dir); err != nil {
			return nil, fmt.Errorf("writing checksums in %s: %w", dir, err)
		}
	}
	result.Timings.Checksum = time.Since(checksumStart)

	if req.Verify && req.Redundancy > 0 {
		verifyStart := time.Now()
		if err := s.verifyVolumes(ctx, req.OutDir, finalDirs); err != nil {
			return nil, err
		}
		// A skipped check is not a passed one.
		result.Verified = s.verifier != nil
		result.Timings.Verify = time.Since(verifyStart)
	}

	s.summarise(result, groups, placements, finalDirs)
	if s.monitor != nil {
		result.InputMutations = s.monitor.Mutations()
	}

	if s.runStore != nil {
		rec := domain.RunRecord{
			ID:              runID,
			StartedAt:       started,
			Volumes:         req.Volumes,
			Redundancy:      req.Redundancy,
			TotalBytes:      result.TotalBytes,
			RedundancyBytes: result.RedundancyBytes,
			OutDir:          req.OutDir,
			Generator:       s.generator.Name(),
			Verified:        result.Verified,
		}
		if err := s.runStore.Record(ctx, rec); err != nil {
			logger.Warn("Cannot record run in catalog: %v", err)
		}
	}

	return result, nil
}

// VerifyLayout re-checks an existing output layout: checksum files on
// every volume, then restorability with each volume missing in turn.
func (s *PipelineService) VerifyLayout(ctx context.Context, dir, prefix string) error {
	var volumeDirs []string
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s%d", prefix, i))
		info, err := os.Stat(candidate)
		if err != nil || !info.IsDir() {
			break
		}
		volumeDirs = append(volumeDirs, candidate)
	}
	if len(volumeDirs) == 0 {
		return fmt.Errorf("no volume directories with prefix %q under %s", prefix, dir)
	}

	for _, vol := range volumeDirs {
		if err := s.checksums.VerifySums(ctx, vol); err != nil {
			return fmt.Errorf("checksum mismatch in %s: %w", vol, err)
		}
	}

	return s.verifyVolumes(ctx, dir, volumeDirs)
}

// Runs returns the recorded runs, most recent first.
func (s *PipelineService) Runs(ctx context.Context) ([]domain.RunRecord, error) {
	if s.runStore == nil {
		return nil, errors.New("run catalog not configured")
	}
	return s.runStore.List(ctx)
}

// precheck partitions and allocates over the raw input sizes and fails
// early when the configuration is already provably infeasible.
func (s *PipelineService) precheck(files []domain.FileRecord, req driving.RunRequest) error {
	groups, err := s.partitioner.Partition(files, req.Volumes, 1)
	if err != nil {
		return err
	}
	_, findings, err := s.allocator.Allocate(groups, req.Redundancy, req.Volumes)
	if err != nil {
		return err
	}
	return s.applyFindings(findings)
}

// applyFindings turns feasibility findings into an error, or logs them
// when the run is forced.
func (s *PipelineService) applyFindings(findings *domain.Findings) error {
	if findings.Empty() {
		return nil
	}
	if s.cfg.Force {
		for _, p := range findings.Problems() {
			logger.Warn("Continuing despite: %s", p)
		}
		return nil
	}
	return findings.ErrorOr(domain.ErrInfeasibleRedundancy)
}

// makeStaging creates the run's staging directory under TmpDir (OutDir
// when unset).
func (s *PipelineService) makeStaging(req driving.RunRequest, runID string) (string, error) {
	parent := req.TmpDir
	if parent == "" {
		parent = req.OutDir
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("creating staging parent %s: %w", parent, err)
	}
	staging := filepath.Join(parent, fmt.Sprintf(".staging-%s", runID))
	if err := os.Mkdir(staging, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	return staging, nil
}

// stage copies or archives every input file into the staging root and
// measures the results. With an archiver configured the archive sizes,
// not the input sizes, drive the partition.
func (s *PipelineService) stage(ctx context.Context, files []domain.FileRecord, staging string, req driving.RunRequest) ([]domain.FileRecord, error) {
	compress := req.Compress || req.Passphrase != ""
	if compress && s.archiver == nil {
		return nil, errors.New("compression requested but no archiver configured")
	}

	staged := make([]domain.FileRecord, 0, len(files))
	for i, f := range files {
		var path string
		var err error
		if compress {
			logger.Debug("Archiving file %d of %d: %s", i+1, len(files), f.Name())
			path, err = s.archiver.Archive(ctx, f.Path, staging, req.Passphrase)
			if err != nil {
				return nil, fmt.Errorf("%w: archiving %s: %v", domain.ErrExternalTool, f.Name(), err)
			}
		} else {
			path = filepath.Join(staging, f.Name())
			if err = copyFile(f.Path, path); err != nil {
				return nil, fmt.Errorf("copying %s: %w", f.Name(), err)
			}
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("measuring staged file: %w", err)
		}
		staged = append(staged, domain.FileRecord{Path: path, Size: info.Size()})
	}

	sort.Slice(staged, func(i, j int) bool { return staged[i].Path < staged[j].Path })
	return staged, nil
}

// layoutGroups creates one staging subdirectory per group and moves the
// group's members into it. Member paths are updated in place.
func (s *PipelineService) layoutGroups(staging string, groups []domain.Group) ([]string, error) {
	volDirs := make([]string, len(groups))
	for i := range groups {
		dir := filepath.Join(staging, fmt.Sprintf("vol%d", i+1))
		if err := os.Mkdir(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating group directory: %w", err)
		}
		volDirs[i] = dir
		for m := range groups[i].Members {
			member := &groups[i].Members[m]
			dest := filepath.Join(dir, filepath.Base(member.Path))
			if err := os.Rename(member.Path, dest); err != nil {
				return nil, fmt.Errorf("placing %s: %w", member.Path, err)
			}
			member.Path = dest
		}
	}
	return volDirs, nil
}

// generate invokes the redundancy generator once per group, in
// parallel. Groups are independent; the caller proceeds only once every
// group's artifacts exist. With a zero budget no generator is invoked
// at all.
func (s *PipelineService) generate(ctx context.Context, groups []domain.Group, plan *domain.RedundancyPlan, volDirs []string, req driving.RunRequest) ([][]domain.Artifact, error) {
	artifacts := make([][]domain.Artifact, len(groups))
	if plan.TotalTarget() == 0 {
		return artifacts, nil
	}
	if s.generator == nil {
		return nil, errors.New("redundancy requested but no generator configured")
	}

	errs := make([]error, len(groups))
	var wg sync.WaitGroup
	for i := range groups {
		if plan.Targets[i] == 0 {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			names := make([]string, len(groups[i].Members))
			for m, f := range groups[i].Members {
				names[m] = filepath.Base(f.Path)
			}
			arts, err := s.generator.Generate(ctx, driven.GenerateRequest{
				GroupIndex:  i,
				Dir:         volDirs[i],
				Files:       names,
				TargetBytes: plan.Targets[i],
				BlockSize:   req.BlockSize,
				BlockCount:  req.BlockCount,
				MemoryMB:    req.MemoryMB,
			})
			if err != nil {
				errs[i] = fmt.Errorf("%w: generating redundancy for group %d: %v", domain.ErrExternalTool, i, err)
				return
			}
			var produced int64
			for _, a := range arts {
				produced += a.Size
			}
			if !s.allocator.WithinTolerance(plan.Targets[i], produced) {
				errs[i] = fmt.Errorf("%w: generator produced %d bytes for group %d, expected about %d",
					domain.ErrExternalTool, produced, i, plan.Targets[i])
				return
			}
			artifacts[i] = arts
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return artifacts, nil
}

// commit renames the staged group directories into their final
// <prefix><i> locations under OutDir.
func (s *PipelineService) commit(req driving.RunRequest, volDirs []string) ([]string, error) {
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	finalDirs := make([]string, len(volDirs))
	for i, dir := range volDirs {
		final := filepath.Join(req.OutDir, fmt.Sprintf("%s%d", req.Prefix, i+1))
		if _, err := os.Stat(final); err == nil {
			return nil, fmt.Errorf("output directory %s already exists", final)
		}
		if err := moveDir(dir, final); err != nil {
			return nil, fmt.Errorf("committing volume %d: %w", i+1, err)
		}
		finalDirs[i] = final
	}
	return finalDirs, nil
}

// verifyVolumes proves restorability with each volume missing in turn.
func (s *PipelineService) verifyVolumes(ctx context.Context, outDir string, volumeDirs []string) error {
	if s.verifier == nil {
		logger.Warn("No recovery verifier configured, skipping restorability check")
		return nil
	}
	workDir, err := os.MkdirTemp(outDir, "verify_")
	if err != nil {
		return fmt.Errorf("creating verify scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	for missing := range volumeDirs {
		logger.Info("Verifying restorability without volume %d", missing+1)
		if err := s.verifier.VerifyWithout(ctx, workDir, volumeDirs, missing); err != nil {
			return fmt.Errorf("volume %d cannot be lost safely: %w", missing+1, err)
		}
	}
	return nil
}

// summarise fills the per-volume summaries from the committed layout.
func (s *PipelineService) summarise(result *driving.RunResult, groups []domain.Group, placements []domain.Placement, finalDirs []string) {
	incoming := make([]int64, len(groups))
	for _, p := range placements {
		incoming[p.Dest] += p.Artifact.Size
	}

	result.Volumes = make([]driving.VolumeSummary, len(groups))
	for i := range groups {
		result.Volumes[i] = driving.VolumeSummary{
			Dir:             finalDirs[i],
			Files:           len(groups[i].Members),
			DataBytes:       groups[i].DataSize,
			RedundancyBytes: incoming[i],
		}
		result.TotalBytes += groups[i].DataSize
		result.RedundancyBytes += incoming[i]
	}
}

// relocate moves every artifact into its destination group directory.
func relocate(placements []domain.Placement, volDirs []string) error {
	for _, p := range placements {
		dest := filepath.Join(volDirs[p.Dest], filepath.Base(p.Artifact.Path))
		if err := os.Rename(p.Artifact.Path, dest); err != nil {
			return fmt.Errorf("relocating %s: %w", p.Artifact.Path, err)
		}
	}
	return nil
}

// copyFile copies src to dest, preserving nothing but the bytes.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// moveDir renames a directory, falling back to a copy when the rename
// crosses filesystems.
func moveDir(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := filepath.Join(src, entry.Name())
		to := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			if err := moveDir(from, to); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(from, to); err != nil {
			return err
		}
	}
	return os.RemoveAll(src)
}
