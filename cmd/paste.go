package cmd

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	pasteProject string
	pasteNoEmbed bool
)

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Capture the system clipboard into a project",
	Long: `Read text from the system clipboard and capture it like a paste into
the side panel. Bare URLs become link nodes.

Examples:
  cascade paste
  cascade paste --project research`,
	Args: cobra.NoArgs,
	RunE: runPaste,
}

func init() {
	rootCmd.AddCommand(pasteCmd)

	pasteCmd.Flags().StringVarP(&pasteProject, "project", "p", "", "Target project id or name (default: inbox)")
	pasteCmd.Flags().BoolVar(&pasteNoEmbed, "no-embed", false, "Skip embedding generation")
}

// readClipboard is swapped out in tests
var readClipboard = clipboard.ReadAll

func runPaste(cmd *cobra.Command, args []string) error {
	text, err := readClipboard()
	if err != nil {
		return fmt.Errorf("failed to read clipboard: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(out, "Clipboard is empty")
		return nil
	}

	return ingestFromCLI(commandContext(cmd), pasteProject, textEvent(text), !pasteNoEmbed, true)
}
