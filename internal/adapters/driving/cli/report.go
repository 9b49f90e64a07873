package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/maglar0/create-par2/internal/core/ports/driving"
)

const barChartWidth = 50

var (
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// printRunReport renders the end-of-run summary: per-volume bar chart,
// redundancy share and timings.
func printRunReport(cmd *cobra.Command, result *driving.RunResult, redundancy float64, volumes int) {
	cmd.Println()
	cmd.Println(successStyle.Render("Success, everything done."))
	cmd.Println()

	cmd.Println("Volume sizes:")
	sizes := make([]int64, len(result.Volumes))
	labels := make([]string, len(result.Volumes))
	for i, vol := range result.Volumes {
		sizes[i] = vol.DataBytes + vol.RedundancyBytes
		labels[i] = humanize.IBytes(uint64(sizes[i]))
	}
	for _, line := range barChart(sizes, labels, barChartWidth) {
		cmd.Println(line)
	}
	cmd.Println()

	total := result.TotalBytes + result.RedundancyBytes
	if total > 0 && redundancy > 0 {
		actual := 100 * float64(result.RedundancyBytes) / float64(total)
		ideal := 100 * redundancy / float64(volumes)
		cmd.Printf("Recovery data is %.1f%% of the output (ideal for %g of %d volumes would be %.1f%%)\n",
			actual, redundancy, volumes, ideal)
	}

	cmd.Println()
	cmd.Println("Time statistics:")
	cmd.Printf("  Staging:      %.1fs\n", result.Timings.Archive.Seconds())
	cmd.Printf("  Generation:   %.1fs\n", result.Timings.Generate.Seconds())
	cmd.Printf("  Checksums:    %.1fs\n", result.Timings.Checksum.Seconds())
	if result.Verified {
		cmd.Printf("  Verification: %.1fs\n", result.Timings.Verify.Seconds())
	}

	if len(result.InputMutations) > 0 {
		cmd.Println()
		cmd.Println(warningStyle.Render("Warning: input files changed during the run; the output may be stale:"))
		for _, path := range result.InputMutations {
			cmd.Printf("  %s\n", path)
		}
	}
}

// printPlanReport renders a dry-run plan: the projected per-group chart
// plus any feasibility findings.
func printPlanReport(cmd *cobra.Command, plan *driving.PlanResult) {
	cmd.Println("Projected volume sizes:")
	sizes := make([]int64, len(plan.Groups))
	labels := make([]string, len(plan.Groups))
	for i := range plan.Groups {
		sizes[i] = plan.Groups[i].DataSize + plan.Plan.Targets[i]
		labels[i] = fmt.Sprintf("%s data + %s recovery",
			humanize.IBytes(uint64(plan.Groups[i].DataSize)),
			humanize.IBytes(uint64(plan.Plan.Targets[i])))
	}
	for _, line := range barChart(sizes, labels, barChartWidth) {
		cmd.Println(line)
	}

	if len(plan.Findings) > 0 {
		cmd.Println()
		cmd.Println(warningStyle.Render("This configuration is not feasible:"))
		for _, finding := range plan.Findings {
			cmd.Printf("  - %s\n", finding)
		}
	}
}

// barChart renders horizontal bars scaled to the largest value.
func barChart(values []int64, labels []string, width int) []string {
	var maxValue int64
	for _, v := range values {
		if v > maxValue {
			maxValue = v
		}
	}

	lines := make([]string, len(values))
	for i, v := range values {
		filled := 0
		if maxValue > 0 {
			filled = int(float64(v)*float64(width)/float64(maxValue) + 0.5)
		}
		bar := barStyle.Render(strings.Repeat("#", filled)) + strings.Repeat(" ", width-filled)
		lines[i] = fmt.Sprintf("%s %s", bar, labels[i])
	}
	return lines
}
