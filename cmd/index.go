package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate embeddings for text and link nodes",
	Long: `Generate vector embeddings with Ollama for every text and link node that
doesn't have one for the configured model yet. Search uses them for the
semantic part of its ranking.

Requires a running Ollama and the model pulled:
  ollama pull nomic-embed-text`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	client, err := newEmbedder(ctx)
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	nodes, err := s.NodesWithoutEmbedding(ctx, client.GetModel())
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(out, "All nodes are indexed")
		return nil
	}

	fmt.Fprintf(out, "Indexing %d node(s) with %s...\n", len(nodes), client.GetModel())
	n, err := embedNodes(ctx, s, client, nodes)
	if err != nil {
		return fmt.Errorf("indexed %d of %d: %w", n, len(nodes), err)
	}
	fmt.Fprintf(out, "✓ Indexed %d node(s)\n", n)
	return nil
}
