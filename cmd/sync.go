package cmd

import (
	"fmt"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/export"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/vault"
	"github.com/spf13/cobra"
)

var syncVault string

var syncCmd = &cobra.Command{
	Use:   "sync <project>",
	Short: "Write a markdown project into the vault folder",
	Long: `Render a markdown project as a .md file in the vault folder. Images are
saved under assets/ next to it. The first sync records which file the
project is bound to; later syncs overwrite that file.

Examples:
  cascade sync journal
  cascade sync journal --vault ~/notes`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncVault, "vault", "", "Vault folder (default from vault.root)")
}

func runSync(cmd *cobra.Command, args []string) error {
	root := syncVault
	if root == "" {
		root = config.GetVaultRoot()
	}
	if root == "" {
		return fmt.Errorf("no vault folder configured (set vault.root or use --vault)")
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
	if p.Type != models.ProjectMarkdown {
		warnf("%q is a %s project; syncing it as markdown anyway", p.Name, p.Type)
	}

	res, err := export.New(s, newLogger()).SyncMarkdown(ctx, p.ID, vault.New(root), s)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Synced %q to %s\n", p.Name, res.File)
	fmt.Fprintf(out, "  Nodes:  %d\n", res.Nodes)
	if len(res.Assets) > 0 {
		fmt.Fprintf(out, "  Assets: %d\n", len(res.Assets))
	}
	return nil
}
