// Package reedsolomon generates redundancy data in-process with
// Reed-Solomon erasure coding, as an alternative to shelling out to
// par2. The whole group is read into memory, split into data shards and
// encoded; the parity shards are written out as the group's artifacts
// together with a manifest describing the shard layout.
//
// Suitable for groups that fit comfortably in memory. For very large
// groups prefer the par2 generator, which streams.
package reedsolomon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/reedsolomon"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

// maxShards is the GF(8) shard ceiling of the underlying codec.
const maxShards = 256

// Ensure Generator implements the interface.
var _ driven.RedundancyGenerator = (*Generator)(nil)

// manifest records the shard layout needed to reconstruct a group.
type manifest struct {
	DataShards   int            `json:"data_shards"`
	ParityShards int            `json:"parity_shards"`
	ShardSize    int            `json:"shard_size"`
	TotalSize    int            `json:"total_size"`
	Files        []manifestFile `json:"files"`
}

// manifestFile records one member file's place in the concatenated
// group payload.
type manifestFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Generator produces parity shards with Reed-Solomon coding.
type Generator struct{}

// NewGenerator returns an in-process Reed-Solomon generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Name identifies the generator in logs and the run catalog.
func (g *Generator) Name() string {
	return "reedsolomon"
}

// Generate concatenates the group's files, encodes parity shards sized
// to roughly req.TargetBytes and writes them to req.Dir alongside a
// manifest. Block size and count overrides are par2 specific and
// ignored here.
func (g *Generator) Generate(ctx context.Context, req driven.GenerateRequest) ([]domain.Artifact, error) {
	if req.TargetBytes <= 0 {
		return nil, nil
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("group %d has no files", req.GroupIndex)
	}

	payload, entries, err := readGroup(req.Dir, req.Files)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("group %d is empty", req.GroupIndex)
	}

	data, parity := chooseShardCounts(int64(len(payload)), req.TargetBytes)
	enc, err := reedsolomon.New(data, parity)
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}

	shards, err := enc.Split(payload)
	if err != nil {
		return nil, fmt.Errorf("splitting group %d: %w", req.GroupIndex, err)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encoding group %d: %w", req.GroupIndex, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stem := fmt.Sprintf("recovery-vol%03d", req.GroupIndex+1)
	var artifacts []domain.Artifact
	for i, shard := range shards[data:] {
		name := fmt.Sprintf("%s.rs%03d", stem, i)
		path := filepath.Join(req.Dir, name)
		if err := os.WriteFile(path, shard, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
		artifacts = append(artifacts, domain.Artifact{
			OriginGroup: req.GroupIndex,
			Path:        path,
			Size:        int64(len(shard)),
		})
	}

	m := manifest{
		DataShards:   data,
		ParityShards: parity,
		ShardSize:    len(shards[0]),
		TotalSize:    len(payload),
		Files:        entries,
	}
	manifestPath := filepath.Join(req.Dir, stem+".rsmeta")
	encoded, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, encoded, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}
	artifacts = append(artifacts, domain.Artifact{
		OriginGroup: req.GroupIndex,
		Path:        manifestPath,
		Size:        int64(len(encoded)),
	})

	return artifacts, nil
}

// readGroup concatenates the group's files in the given order.
func readGroup(dir string, files []string) ([]byte, []manifestFile, error) {
	var payload []byte
	entries := make([]manifestFile, 0, len(files))
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", name, err)
		}
		payload = append(payload, data...)
		entries = append(entries, manifestFile{Name: name, Size: int64(len(data))})
	}
	return payload, entries, nil
}

// chooseShardCounts picks data and parity shard counts whose ratio best
// approximates target/payload within the codec's shard ceiling, so that
// the parity bytes written land as close to target as possible.
func chooseShardCounts(payloadBytes, target int64) (data, parity int) {
	want := float64(target) / float64(payloadBytes)
	best := math.Inf(1)
	data, parity = 1, 1
	for d := 1; d < maxShards; d++ {
		p := int(math.Round(float64(d) * want))
		if p < 1 {
			p = 1
		}
		if p > maxShards-d {
			p = maxShards - d
		}
		diff := math.Abs(float64(p)/float64(d) - want)
		if diff < best {
			best = diff
			data, parity = d, p
		}
	}
	return data, parity
}
