package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/embeddings"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/store"
	"github.com/spf13/cobra"
)

var (
	searchProject string
	searchLimit   int
	searchJSON    bool
	searchToon    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search captures using hybrid keyword and semantic search",
	Long: `Search through captured text and links using hybrid search.

Combines keyword matching with semantic similarity (if embeddings available).
Automatically uses semantic search when nodes have embeddings.

Example:
  cascade search "rate limiting"
  cascade search --project research "connection pooling"

Search modes:
  - Keyword only: When embeddings unavailable or Ollama not running
  - Hybrid: Combines keyword (30%) + semantic (70%) when embeddings available`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&searchProject, "project", "p", "", "Restrict to a project")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output as JSON")
	searchCmd.Flags().BoolVar(&searchToon, "toon", false, "Output in LLM-friendly toon format")
}

type searchResult struct {
	Node          nodeSummary `json:"node"`
	ProjectID     int64       `json:"project_id"`
	Score         float64     `json:"score"`
	KeywordScore  int         `json:"keyword_score"`
	SemanticScore float64     `json:"semantic_score,omitempty"`
	UsedSemantic  bool        `json:"used_semantic"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var projectID int64
	if searchProject != "" {
		p, err := resolveProject(ctx, s, searchProject)
		if err != nil {
			return err
		}
		projectID = p.ID
	}

	query := args[0]
	queryEmbedding, vectors := semanticContext(ctx, s, query)
	if queryEmbedding != nil {
		fmt.Fprintln(warnOut, "Using hybrid search (keyword + semantic)")
	} else {
		fmt.Fprintln(warnOut, "Using keyword search only")
	}

	nodes, err := s.TextNodes(ctx, projectID)
	if err != nil {
		return err
	}

	results := rankNodes(nodes, strings.Fields(strings.ToLower(query)), queryEmbedding, vectors, embeddings.Weights{
		Keyword:  config.GetKeywordWeight(),
		Semantic: config.GetSemanticWeight(),
	})
	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}

	if done, err := printStructured(results, searchJSON, searchToon); done {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No captures match the search query")
		return nil
	}

	fmt.Fprintf(out, "\nFound %d matching node(s):\n\n", len(results))
	for i, r := range results {
		scoreDisplay := fmt.Sprintf("%.1f", r.Score)
		if r.UsedSemantic {
			scoreDisplay += fmt.Sprintf(" (keyword: %d, semantic: %.1f%%)", r.KeywordScore, r.SemanticScore)
		} else {
			scoreDisplay += " (keyword only)"
		}

		fmt.Fprintf(out, "%d. node %d [score: %s]\n", i+1, r.Node.ID, scoreDisplay)
		fmt.Fprintf(out, "   Type:    %s\n", r.Node.Type)
		fmt.Fprintf(out, "   Text:    %s\n", truncate(r.Node.Title, 80))
		if r.Node.URL != "" {
			fmt.Fprintf(out, "   URL:     %s\n", r.Node.URL)
		}
		fmt.Fprintf(out, "   Created: %s\n", r.Node.CreatedAt)
		fmt.Fprintln(out)
	}

	return nil
}

// semanticContext embeds the query when embeddings are enabled and reachable.
// A nil query embedding means keyword-only search.
func semanticContext(ctx context.Context, s *store.Store, query string) ([]float64, map[int64][]float64) {
	if !config.GetEmbeddingsEnabled() {
		return nil, nil
	}
	client, err := newEmbedder(ctx)
	if err != nil {
		return nil, nil
	}
	vectors, err := s.Embeddings(ctx, client.GetModel())
	if err != nil || len(vectors) == 0 {
		return nil, nil
	}
	queryEmbedding, err := client.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, nil
	}
	return queryEmbedding, vectors
}

// rankNodes scores nodes against the query and returns the relevant ones,
// best first
func rankNodes(nodes []models.Node, queryWords []string, queryEmbedding []float64, vectors map[int64][]float64, w embeddings.Weights) []searchResult {
	var results []searchResult
	for i := range nodes {
		n := &nodes[i]

		title := ""
		if n.Type == models.NodeLink {
			title = n.Text
		}
		keywordScore := embeddings.KeywordScore(queryWords, title, embeddingText(n))

		var semanticScore float64
		usedSemantic := false
		if vec, ok := vectors[n.ID]; ok && queryEmbedding != nil {
			if similarity, err := embeddings.CosineSimilarity(queryEmbedding, vec); err == nil {
				semanticScore = embeddings.SemanticScore(similarity)
				usedSemantic = true
			}
		}

		finalScore := embeddings.Combine(keywordScore, semanticScore, usedSemantic, w)
		if finalScore > 0 || keywordScore > 0 {
			results = append(results, searchResult{
				Node:          summarize(*n),
				ProjectID:     n.ProjectID,
				Score:         finalScore,
				KeywordScore:  keywordScore,
				SemanticScore: semanticScore,
				UsedSemantic:  usedSemantic,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
