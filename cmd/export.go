package cmd

import (
	"errors"
	"fmt"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/export"
	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Export a project as a canvas archive",
	Long: `Write <project>.zip containing <project>.canvas and an attachments/
folder with every captured image. The canvas lays nodes out on a four
column grid and opens directly in canvas-aware note apps.

Examples:
  cascade export research
  cascade export 3 --dir ~/Desktop`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Output directory (default from export.dir)")
}

func runExport(cmd *cobra.Command, args []string) error {
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

	dir := exportDir
	if dir == "" {
		dir = config.GetExportDir()
	}

	res, err := export.New(s, newLogger()).ExportFile(ctx, p.ID, dir)
	if errors.Is(err, export.ErrEmptyProject) {
		fmt.Fprintln(out, capitalize(err.Error()))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Exported %q: %s\n", p.Name, res.Path)
	fmt.Fprintf(out, "  Nodes:       %d\n", res.Nodes)
	fmt.Fprintf(out, "  Attachments: %d\n", res.Attachments)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
