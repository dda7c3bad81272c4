package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var editStdin bool

var editCmd = &cobra.Command{
	Use:   "edit <node-id> [text]",
	Short: "Replace the text of a text node",
	Long: `Replace the text of a text node. The originally captured text is kept
and can be compared with: cascade diff <node-id>

Examples:
  cascade edit 12 "tightened wording"
  pbpaste | cascade edit 12 --stdin`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().BoolVar(&editStdin, "stdin", false, "Read the new text from standard input")
}

// editInput is swapped out in tests
var editInput io.Reader = os.Stdin

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseNodeID(args[0])
	if err != nil {
		return err
	}

	var text string
	switch {
	case editStdin:
		raw, err := io.ReadAll(editInput)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(raw)
	case len(args) == 2:
		text = args[1]
	default:
		return fmt.Errorf("text is required (provide as argument or use --stdin)")
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	n, changed, err := s.UpdateTextNode(ctx, id, text)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(out, "Node %d unchanged\n", n.ID)
		return nil
	}
	fmt.Fprintf(out, "✓ Updated node %d: %s\n", n.ID, truncate(n.Text, 60))
	return nil
}
