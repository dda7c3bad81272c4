package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <template>",
	Short: "Generate pre-defined reports",
	Long: `Generate formatted reports using pre-defined templates.

Available templates:
  daily   - Today's captures grouped by project with summary stats

Examples:
  cascade report daily`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	switch template := args[0]; template {
	case "daily":
		return generateDailyReport(cmd, time.Now())
	default:
		return fmt.Errorf("unknown report template: %s (available: daily)", template)
	}
}

func generateDailyReport(cmd *cobra.Command, now time.Time) error {
	fmt.Fprintln(out, "Daily Capture Report")
	fmt.Fprintln(out, "════════════════════")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Summary")
	fmt.Fprintln(out, "───────")

	oldJSON, oldToon := statsJSON, statsToon
	statsJSON, statsToon = false, false
	err := runStats(cmd, nil)
	statsJSON, statsToon = oldJSON, oldToon
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Today's Captures by Project")
	fmt.Fprintln(out, "───────────────────────────")

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	total := 0
	for _, p := range projects {
		if p.UpdatedAt.Before(midnight) {
			continue
		}
		nodes, err := s.ListNodes(ctx, p.ID)
		if err != nil {
			return err
		}

		var today []nodeSummary
		for _, n := range nodes {
			if !n.CreatedAt.Before(midnight) {
				today = append(today, summarize(n))
			}
		}
		if len(today) == 0 {
			continue
		}

		fmt.Fprintf(out, "\n%s (%d)\n", p.Name, len(today))
		for _, n := range today {
			fmt.Fprintf(out, "  %d  [%s] %s\n", n.ID, n.Type, truncate(n.Title, 60))
		}
		total += len(today)
	}

	if total == 0 {
		fmt.Fprintln(out, "\nNo captures today")
	}
	return nil
}
