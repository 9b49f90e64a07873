// Command create-par2 prepares a directory of files for writing to a set
// of backup volumes. Files are spread evenly over the volumes, recovery
// data is generated per volume and placed on the other volumes, and
// checksums are written so the media can be checked years later.
package main

import (
	"fmt"
	"os"

	"github.com/maglar0/create-par2/internal/adapters/driven/checksum"
	configfile "github.com/maglar0/create-par2/internal/adapters/driven/config/file"
	"github.com/maglar0/create-par2/internal/adapters/driven/par2"
	rsgen "github.com/maglar0/create-par2/internal/adapters/driven/reedsolomon"
	"github.com/maglar0/create-par2/internal/adapters/driven/sevenzip"
	"github.com/maglar0/create-par2/internal/adapters/driven/static"
	"github.com/maglar0/create-par2/internal/adapters/driven/storage/sqlite"
	"github.com/maglar0/create-par2/internal/adapters/driven/watch"
	"github.com/maglar0/create-par2/internal/adapters/driving/cli"
	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
	"github.com/maglar0/create-par2/internal/core/services"
	"github.com/maglar0/create-par2/internal/logger"
)

func main() {
	settings, err := configfile.Load("")
	if err != nil {
		logger.Warn("Ignoring config file: %v", err)
	}

	cli.SetBuilder(buildServices, cli.Defaults{
		Redundancy:        settings.Redundancy,
		Prefix:            settings.Prefix,
		CapacityBytes:     settings.CapacityBytes,
		Generator:         settings.Generator,
		OversizeThreshold: settings.OversizeThreshold,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(domain.ExitCode(err))
	}
}

// buildServices assembles the pipeline for one invocation.
func buildServices(cfg domain.Config, generator string) (*cli.Services, error) {
	gen, verifier, err := selectGenerator(generator)
	if err != nil {
		return nil, err
	}

	// The catalog is a convenience; a run must not fail because the
	// local database cannot be opened.
	var runStore driven.RunStore
	if store, err := sqlite.NewStore(""); err != nil {
		logger.Warn("Run catalog unavailable: %v", err)
	} else {
		runStore = store
	}

	pipeline := services.NewPipelineService(
		cfg,
		gen,
		checksum.New(),
		sevenzip.New(""),
		verifier,
		watch.NewMonitor(),
		runStore,
	)

	return &cli.Services{
		Pipeline: pipeline,
		Verifier: pipeline,
		Runs:     pipeline,
	}, nil
}

// selectGenerator maps a generator name to its adapter and, when the
// generator's output can be checked with par2, the matching verifier.
func selectGenerator(name string) (driven.RedundancyGenerator, driven.RecoveryVerifier, error) {
	switch name {
	case "", "par2":
		return par2.NewGenerator(), par2.NewVerifier(), nil
	case "reedsolomon":
		return rsgen.NewGenerator(), nil, nil
	case "static":
		return static.NewGenerator(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown generator %q (available: par2, reedsolomon, static)", name)
	}
}
