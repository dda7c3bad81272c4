package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var (
	statsJSON bool
	statsToon bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show capture statistics",
	Long: `Display statistics about your captures including:
  - Project and node counts
  - Nodes by type (text, file, link)
  - Edited text nodes and stored image bytes
  - Embedding coverage
  - Largest projects

Examples:
  cascade stats
  cascade stats --json
  cascade stats --toon`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
}

type captureStats struct {
	Projects     int            `json:"projects"`
	Nodes        int            `json:"nodes"`
	ByType       map[string]int `json:"by_type"`
	Edited       int            `json:"edited"`
	FileBytes    int64          `json:"file_bytes"`
	Embedded     int            `json:"embedded"`
	UndoPending  bool           `json:"undo_pending"`
	TopProjects  []projectStat  `json:"top_projects"`
	EmptyProject int            `json:"empty_projects"`
}

type projectStat struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	st, err := s.Stats(ctx)
	if err != nil {
		return err
	}

	stats := &captureStats{
		Projects:    st.Projects,
		Nodes:       st.Nodes,
		ByType:      st.ByType,
		Edited:      st.Edited,
		FileBytes:   st.FileBytes,
		Embedded:    st.Embedded,
		UndoPending: st.UndoPending,
		TopProjects: []projectStat{},
	}
	for _, p := range st.PerProject {
		if p.Nodes == 0 {
			stats.EmptyProject++
			continue
		}
		stats.TopProjects = append(stats.TopProjects, projectStat{Name: p.Name, Nodes: p.Nodes})
	}
	sort.SliceStable(stats.TopProjects, func(i, j int) bool {
		return stats.TopProjects[i].Nodes > stats.TopProjects[j].Nodes
	})

	if done, err := printStructured(stats, statsJSON, statsToon); done {
		return err
	}

	if stats.Projects == 0 {
		fmt.Fprintln(out, "No projects found")
		return nil
	}

	fmt.Fprintln(out, "Capture Statistics")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━")
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Projects: %d (%d empty)\n", stats.Projects, stats.EmptyProject)
	fmt.Fprintf(out, "Nodes:    %d\n", stats.Nodes)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "By Type:")
	for _, typ := range []string{"text", "link", "file"} {
		count := stats.ByType[typ]
		percentage := 0.0
		if stats.Nodes > 0 {
			percentage = float64(count) / float64(stats.Nodes) * 100
		}
		fmt.Fprintf(out, "  %-8s %4d  (%.1f%%)\n", typ, count, percentage)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Edited text nodes: %d\n", stats.Edited)
	fmt.Fprintf(out, "Stored images:     %s\n", formatBytes(stats.FileBytes))
	if stats.UndoPending {
		fmt.Fprintln(out, "Undo available:    yes")
	}
	fmt.Fprintln(out)

	searchable := stats.ByType["text"] + stats.ByType["link"]
	fmt.Fprintln(out, "Embedding Coverage:")
	if searchable > 0 {
		percentage := float64(stats.Embedded) / float64(searchable) * 100
		fmt.Fprintf(out, "  With embeddings:    %4d  (%.1f%%)\n", stats.Embedded, percentage)
		fmt.Fprintf(out, "  Without embeddings: %4d\n", searchable-stats.Embedded)
	} else {
		fmt.Fprintln(out, "  No text or link nodes")
	}

	if len(stats.TopProjects) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Top Projects:")
		limit := min(len(stats.TopProjects), 10)
		for _, ps := range stats.TopProjects[:limit] {
			bar := strings.Repeat("█", min(ps.Nodes, 20))
			fmt.Fprintf(out, "  %-20s %4d  %s\n", truncate(ps.Name, 20), ps.Nodes, bar)
		}
	}

	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
