// Package cli implements the cobra command tree for create-par2.
//
// Commands consume the driving ports only; the concrete pipeline is
// assembled per invocation through a Builder injected by main. Tests
// swap the builder for one returning mocks.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driving"
	"github.com/maglar0/create-par2/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services bundles the driving ports the commands need.
type Services struct {
	Pipeline driving.Pipeline
	Verifier driving.Verifier
	Runs     driving.RunLister
}

// Defaults are flag defaults loaded from the user's config file.
// Zero values mean "no file default", falling back to the built-ins.
type Defaults struct {
	Redundancy        float64
	Prefix            string
	CapacityBytes     int64
	Generator         string
	OversizeThreshold float64
}

// Builder assembles the services for one invocation's configuration.
// The generator name selects the redundancy generator adapter.
type Builder func(cfg domain.Config, generator string) (*Services, error)

var (
	build    Builder
	defaults Defaults
)

// SetBuilder injects the service builder and file-config defaults.
// Must be called before Execute.
func SetBuilder(b Builder, d Defaults) {
	build = b
	defaults = d
}

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "create-par2",
	Short: "Prepare files for backup volumes with recovery data",
	Long: `Prepares all files in a directory to be written to a set of backup
volumes (e.g. DVDs). Each file is optionally compressed and encrypted
using 7-Zip, the files are spread over the volumes so each holds about
the same amount of data, and recovery data is generated and placed so
that any single volume can be lost, suffer I/O errors, or silently
corrupt without losing data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the command tree and returns the resulting error, which
// main maps to an exit code.
func Execute() error {
	return rootCmd.Execute()
}
