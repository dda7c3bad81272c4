package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var undoPeek bool

var rmCmd = &cobra.Command{
	Use:   "rm <node-id>",
	Short: "Delete a node",
	Long: `Delete a node. The most recent deletion can be reverted with: cascade undo

Example:
  cascade rm 12`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the most recently deleted node",
	Args:  cobra.NoArgs,
	RunE:  runUndo,
}

func init() {
	rootCmd.AddCommand(rmCmd, undoCmd)

	undoCmd.Flags().BoolVar(&undoPeek, "peek", false, "Show what undo would restore without restoring it")
}

func runRm(cmd *cobra.Command, args []string) error {
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

	n, err := s.DeleteNode(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Deleted %s node %d: %s\n", n.Type, n.ID, truncate(n.Title(), 60))
	fmt.Fprintln(out, "  Undo with: cascade undo")
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if undoPeek {
		n, err := s.PendingUndo(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Would restore %s node %d: %s\n", n.Type, n.ID, truncate(n.Title(), 60))
		return nil
	}

	n, err := s.Undo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Restored %s node as %d: %s\n", n.Type, n.ID, truncate(n.Title(), 60))
	return nil
}
