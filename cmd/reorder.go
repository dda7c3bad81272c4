package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <project> <node-id>...",
	Short: "Set the display order of a project's nodes",
	Long: `Assign nodes the order they are listed in. Either every node moves or,
if any id does not belong to the project, none does.

Example:
  cascade reorder research 14 12 13`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReorder,
}

func init() {
	rootCmd.AddCommand(reorderCmd)
}

func runReorder(cmd *cobra.Command, args []string) error {
	ids := make([]int64, 0, len(args)-1)
	for _, arg := range args[1:] {
		id, err := parseNodeID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := resolveProject(ctx, s, args[0])
	if err != nil {
		return err
	}
	if err := s.ReorderNodes(ctx, p.ID, ids); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Reordered %d node(s) in %q\n", len(ids), p.Name)
	return nil
}
