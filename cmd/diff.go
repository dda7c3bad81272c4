package cmd

import (
	"fmt"

	"github.com/pders01/cascade/internal/models"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"
)

var (
	diffJSON bool
	diffToon bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <node-id>",
	Short: "Compare a text node with its original capture",
	Long: `Show how an edited text node differs from the text originally captured.

Example:
  cascade diff 12
  cascade diff 12 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Output as JSON")
	diffCmd.Flags().BoolVar(&diffToon, "toon", false, "Output in LLM-friendly toon format")
}

type nodeDiff struct {
	NodeID   int64  `json:"node_id"`
	Edited   bool   `json:"edited"`
	Original string `json:"original"`
	Latest   string `json:"latest"`
	Unified  string `json:"unified,omitempty"`
}

func runDiff(cmd *cobra.Command, args []string) error {
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
	if n.Type != models.NodeText {
		return fmt.Errorf("node %d is a %s node; only text nodes have versions", n.ID, n.Type)
	}

	d, err := diffNode(n)
	if err != nil {
		return err
	}

	if done, err := printStructured(d, diffJSON, diffToon); done {
		return err
	}

	if !d.Edited {
		fmt.Fprintf(out, "Node %d has not been edited\n", n.ID)
		return nil
	}
	fmt.Fprint(out, d.Unified)
	return nil
}

func diffNode(n *models.Node) (*nodeDiff, error) {
	d := &nodeDiff{NodeID: n.ID}

	v, ok := n.Version().(models.Edited)
	if !ok {
		d.Original = n.Text
		d.Latest = n.Text
		return d, nil
	}

	d.Edited = true
	d.Original = v.Original
	d.Latest = v.Latest

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(v.Original),
		B:        difflib.SplitLines(v.Latest),
		FromFile: "original",
		ToFile:   "latest",
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to diff node %d: %w", n.ID, err)
	}
	d.Unified = unified
	return d, nil
}
