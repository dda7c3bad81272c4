package cmd

import (
	"fmt"

	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <node-id>",
	Short: "Show a node",
	Long: `Display a node with its text history and where it was captured.

Example:
  cascade show 12`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseNodeID(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}
	p, err := s.GetProject(ctx, n.ProjectID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Node: %d\n\n", n.ID)
	fmt.Fprintf(out, "Project:       %s (id %d)\n", p.Name, p.ID)
	fmt.Fprintf(out, "Type:          %s\n", n.Type)
	fmt.Fprintf(out, "Position:      %d\n", n.Order+1)
	fmt.Fprintf(out, "Created:       %s\n", n.CreatedAt.Format("2006-01-02 15:04:05"))

	if n.SourceURL != "" {
		fmt.Fprintf(out, "Source:        %s\n", n.SourceURL)
	}
	if n.SourceIcon != "" {
		fmt.Fprintf(out, "Icon:          %s\n", n.SourceIcon)
	}

	switch n.Type {
	case models.NodeFile:
		fmt.Fprintf(out, "File:          %s (%d bytes)\n", n.FileName, len(n.FileData))
	case models.NodeLink:
		fmt.Fprintf(out, "URL:           %s\n", n.URL)
		if n.Text != "" {
			fmt.Fprintf(out, "Title:         %s\n", n.Text)
		}
	default:
		if v, ok := n.Version().(models.Edited); ok {
			fmt.Fprintf(out, "\nOriginal:\n%s\n", v.Original)
			fmt.Fprintf(out, "\nLatest:\n%s\n", v.Latest)
		} else {
			fmt.Fprintf(out, "\nText:\n%s\n", n.Text)
		}
	}
	return nil
}
