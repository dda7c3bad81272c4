package cmd

import (
	"fmt"

	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var (
	listJSON bool
	listToon bool
	listType string
)

var listCmd = &cobra.Command{
	Use:   "list [project]",
	Short: "List the nodes of a project",
	Long: `List the nodes of a project in display order.

Without a project the inbox is listed.

Examples:
  cascade list
  cascade list research
  cascade list 3 --type link
  cascade list research --toon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVar(&listToon, "toon", false, "Output in LLM-friendly toon format")
	listCmd.Flags().StringVar(&listType, "type", "", "Filter by node type: text|file|link")
}

// nodeSummary is a node without its file bytes
type nodeSummary struct {
	ID        int64  `json:"id"`
	Order     int    `json:"order"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileBytes int    `json:"file_bytes,omitempty"`
	Edited    bool   `json:"edited"`
	SourceURL string `json:"source_url,omitempty"`
	CreatedAt string `json:"created_at"`
}

func summarize(n models.Node) nodeSummary {
	return nodeSummary{
		ID:        n.ID,
		Order:     n.Order,
		Type:      string(n.Type),
		Title:     n.Title(),
		URL:       n.URL,
		FileName:  n.FileName,
		FileBytes: len(n.FileData),
		Edited:    n.HasEdited,
		SourceURL: n.SourceURL,
		CreatedAt: n.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func runList(cmd *cobra.Command, args []string) error {
	if listType != "" && !models.NodeType(listType).Valid() {
		return fmt.Errorf("invalid node type: %s (must be: text, file, link)", listType)
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}
	p, err := resolveProject(ctx, s, ref)
	if err != nil {
		return err
	}

	nodes, err := s.ListNodes(ctx, p.ID)
	if err != nil {
		return err
	}

	summaries := make([]nodeSummary, 0, len(nodes))
	for _, n := range nodes {
		if listType != "" && string(n.Type) != listType {
			continue
		}
		summaries = append(summaries, summarize(n))
	}

	if done, err := printStructured(summaries, listJSON, listToon); done {
		return err
	}

	if len(summaries) == 0 {
		fmt.Fprintf(out, "No nodes in %q\n", p.Name)
		return nil
	}

	fmt.Fprintf(out, "%s: %d node(s)\n\n", p.Name, len(summaries))
	for _, n := range summaries {
		edited := ""
		if n.Edited {
			edited = " (edited)"
		}
		fmt.Fprintf(out, "  %d  [%s] %s%s\n", n.ID, n.Type, truncate(n.Title, 60), edited)
		if n.URL != "" && n.URL != n.Title {
			fmt.Fprintf(out, "    URL:     %s\n", n.URL)
		}
		if n.FileBytes > 0 {
			fmt.Fprintf(out, "    Size:    %d bytes\n", n.FileBytes)
		}
		if n.SourceURL != "" {
			fmt.Fprintf(out, "    Source:  %s\n", n.SourceURL)
		}
	}
	return nil
}
