package cli

import (
	"errors"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/maglar0/create-par2/internal/core/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List previously completed runs",
	Long: `Lists the runs recorded in the local catalog: when they ran, how many
volumes they produced, and how much data and recovery data they wrote.
The catalog lives on this machine only; restoring from the backup
volumes never needs it.`,
	RunE: runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	if build == nil {
		return errors.New("services not configured")
	}

	services, err := build(domain.DefaultConfig(), generatorName())
	if err != nil {
		return err
	}
	if services.Runs == nil {
		return errors.New("run catalog not available")
	}

	runs, err := services.Runs.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No recorded runs.")
		return nil
	}

	for _, rec := range runs {
		verified := " "
		if rec.Verified {
			verified = "✓"
		}
		cmd.Printf("%s %s  %d volumes  %s data + %s recovery  r=%g  %s  %s\n",
			verified,
			rec.StartedAt.Format("2006-01-02 15:04"),
			rec.Volumes,
			humanize.IBytes(uint64(rec.TotalBytes)),
			humanize.IBytes(uint64(rec.RedundancyBytes)),
			rec.Redundancy,
			rec.Generator,
			rec.OutDir)
	}
	return nil
}
