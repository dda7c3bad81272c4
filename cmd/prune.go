package cmd

import (
	"fmt"
	"time"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var (
	pruneDryRun bool
	pruneForce  bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove empty projects based on retention policy",
	Long: `Remove projects that have no nodes and haven't been touched within the
retention period.

The retention policy is configured in ~/.config/cascade/config.toml:
  [retention]
  days = 30
  preserve_projects = ["Reading List"]

The inbox and preserved projects are never pruned.

Example:
  cascade prune              # Show what would be pruned
  cascade prune --force      # Actually prune projects`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", true, "Show what would be pruned without deleting")
	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually delete projects (overrides dry-run)")
}

type pruneCandidate struct {
	Project models.Project
	Nodes   int
	Age     time.Duration
	Reason  string
}

func runPrune(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	retentionDays := config.GetRetentionDays()
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	fmt.Fprintf(out, "Retention policy: %d days\n", retentionDays)
	fmt.Fprintf(out, "Preserve projects: %v\n", config.GetPreserveProjects())
	fmt.Fprintf(out, "Cutoff date: %s\n\n", cutoffDate.Format("2006-01-02"))

	projects, err := s.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found")
		return nil
	}

	var toPrune, toPreserve []pruneCandidate
	for _, p := range projects {
		count, err := s.CountNodes(ctx, p.ID)
		if err != nil {
			return err
		}

		candidate := pruneCandidate{Project: p, Nodes: count, Age: time.Since(p.UpdatedAt)}
		switch {
		case p.IsInbox:
			candidate.Reason = "inbox"
		case config.ShouldPreserve(p.Name):
			candidate.Reason = "preserved by config"
		case count > 0:
			candidate.Reason = fmt.Sprintf("has %d node(s)", count)
		case p.UpdatedAt.After(cutoffDate):
			candidate.Reason = "within retention period"
		default:
			candidate.Reason = fmt.Sprintf("empty for more than %d days", retentionDays)
			toPrune = append(toPrune, candidate)
			continue
		}
		toPreserve = append(toPreserve, candidate)
	}

	if len(toPrune) == 0 {
		fmt.Fprintln(out, "No projects to prune")
		return nil
	}

	fmt.Fprintf(out, "Projects to prune (%d):\n\n", len(toPrune))
	for _, c := range toPrune {
		fmt.Fprintf(out, "  %s (id %d)\n", c.Project.Name, c.Project.ID)
		fmt.Fprintf(out, "    Age:    %s\n", formatDuration(c.Age))
		fmt.Fprintf(out, "    Reason: %s\n", c.Reason)
		fmt.Fprintln(out)
	}

	if len(toPreserve) > 0 {
		fmt.Fprintf(out, "Projects to preserve (%d):\n\n", len(toPreserve))
		for _, c := range toPreserve {
			fmt.Fprintf(out, "  %s (id %d)\n", c.Project.Name, c.Project.ID)
			fmt.Fprintf(out, "    Reason: %s\n", c.Reason)
		}
		fmt.Fprintln(out)
	}

	if pruneForce && !pruneDryRun {
		fmt.Fprintln(out, "Pruning projects...")
		pruned := 0
		for _, c := range toPrune {
			fmt.Fprintf(out, "  Deleting %s...\n", c.Project.Name)
			if err := s.DeleteProject(ctx, c.Project.ID); err != nil {
				fmt.Fprintf(out, "    Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "    ✓ Deleted")
			pruned++
		}
		fmt.Fprintf(out, "\n✓ Pruned %d project(s)\n", pruned)
	} else {
		fmt.Fprintln(out, "This is a dry run. Use --force to actually prune projects.")
	}

	return nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days == 0 {
		return "< 1 day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
