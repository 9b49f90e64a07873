package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/maglar0/create-par2/internal/core/domain"
)

var planCmd = &cobra.Command{
	Use:   "plan NUM_VOLUMES",
	Short: "Show the partition and redundancy plan without writing anything",
	Long: `Computes the balanced partition and the redundancy allocation for the
input files, prints the projected volume layout, and reports any
feasibility problems. Nothing is written and no external tool is run.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&createInDir, "indir", "i", "", "Process the files in this directory (default: current directory)")
	planCmd.Flags().StringVarP(&createRedundancy, "redundancy", "r", "", fmt.Sprintf("Number of volumes worth of recovery data (default %g)", domain.DefaultRedundancy))
	planCmd.Flags().Int64Var(&createCapacity, "capacity-bytes", 0, "Capacity of one medium in bytes (0 disables the capacity check)")
	planCmd.Flags().BoolVar(&createRecursive, "recursive", false, "Include files in subdirectories")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	if build == nil {
		return errors.New("services not configured")
	}

	volumes, err := strconv.Atoi(args[0])
	if err != nil || volumes < 3 {
		return fmt.Errorf("NUM_VOLUMES must be an integer greater than or equal to 3, got %q", args[0])
	}

	redundancy, err := resolveRedundancy(cmd)
	if err != nil {
		return err
	}

	req, cfg, err := buildRequest(volumes, redundancy)
	if err != nil {
		return err
	}

	services, err := build(cfg, generatorName())
	if err != nil {
		return err
	}

	plan, err := services.Pipeline.Plan(cmd.Context(), req)
	if err != nil {
		return err
	}

	printPlanReport(cmd, plan)

	if len(plan.Findings) > 0 {
		return fmt.Errorf("%w: %d problem(s) found", domain.ErrInfeasibleRedundancy, len(plan.Findings))
	}
	return nil
}
