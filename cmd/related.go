package cmd

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/embeddings"
	"github.com/pders01/cascade/internal/models"
	"github.com/spf13/cobra"
)

var (
	relatedLimit int
	relatedJSON  bool
	relatedToon  bool
)

var relatedCmd = &cobra.Command{
	Use:   "related <node-id>",
	Short: "Find related captures",
	Long: `Find text and link nodes related to a given node based on:
  - Stored embeddings (when indexed)
  - Same source page
  - Links to the same host
  - Shared words
  - Same project

Results are ranked by relevance. No Ollama connection is needed; only
embeddings already written by "cascade index" are used.

Example:
  cascade related 42`,
	Args: cobra.ExactArgs(1),
	RunE: runRelated,
}

func init() {
	rootCmd.AddCommand(relatedCmd)

	relatedCmd.Flags().IntVar(&relatedLimit, "limit", 10, "Maximum number of results")
	relatedCmd.Flags().BoolVar(&relatedJSON, "json", false, "Output as JSON")
	relatedCmd.Flags().BoolVar(&relatedToon, "toon", false, "Output in LLM-friendly toon format")
}

type relatedNode struct {
	Node   nodeSummary `json:"node"`
	Score  int         `json:"score"`
	Reason string      `json:"reason"`
}

func runRelated(cmd *cobra.Command, args []string) error {
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

	target, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}

	candidates, err := s.TextNodes(ctx, 0)
	if err != nil {
		return err
	}
	vectors, err := s.Embeddings(ctx, config.GetEmbeddingModel())
	if err != nil {
		return err
	}

	related := relateNodes(target, candidates, vectors)
	if relatedLimit > 0 && len(related) > relatedLimit {
		related = related[:relatedLimit]
	}

	if done, err := printStructured(related, relatedJSON, relatedToon); done {
		return err
	}

	if len(related) == 0 {
		fmt.Fprintln(out, "No related nodes found")
		return nil
	}

	fmt.Fprintf(out, "Found %d related node(s) for node %d:\n\n", len(related), target.ID)
	for i, r := range related {
		fmt.Fprintf(out, "%d. node %d [score: %d]\n", i+1, r.Node.ID, r.Score)
		fmt.Fprintf(out, "   Relationship: %s\n", r.Reason)
		fmt.Fprintf(out, "   Type:    %s\n", r.Node.Type)
		fmt.Fprintf(out, "   Text:    %s\n", truncate(r.Node.Title, 60))
		fmt.Fprintf(out, "   Created: %s\n", r.Node.CreatedAt)
		fmt.Fprintln(out)
	}

	return nil
}

// relateNodes scores candidates against target, best first. Candidates with
// no relationship are dropped.
func relateNodes(target *models.Node, candidates []models.Node, vectors map[int64][]float64) []relatedNode {
	targetWords := significantWords(embeddingText(target))
	targetHost := host(target.URL)
	targetVec := vectors[target.ID]

	var related []relatedNode
	for i := range candidates {
		n := &candidates[i]
		if n.ID == target.ID {
			continue
		}

		score := 0
		var reasons []string

		if vec, ok := vectors[n.ID]; ok && targetVec != nil {
			if similarity, err := embeddings.CosineSimilarity(targetVec, vec); err == nil && similarity > 0.5 {
				score += int(embeddings.SemanticScore(similarity))
				reasons = append(reasons, fmt.Sprintf("%.0f%% similar", similarity*100))
			}
		}

		if target.SourceURL != "" && n.SourceURL == target.SourceURL {
			score += 30
			reasons = append(reasons, "same source page")
		}

		if targetHost != "" && host(n.URL) == targetHost {
			score += 20
			reasons = append(reasons, "same host")
		}

		shared := 0
		for w := range significantWords(embeddingText(n)) {
			if targetWords[w] {
				shared++
			}
		}
		if shared > 0 {
			score += shared * 5
			reasons = append(reasons, fmt.Sprintf("%d shared words", shared))
		}

		// Same project only counts alongside another relationship
		if score > 0 {
			if n.ProjectID == target.ProjectID {
				score += 10
				reasons = append(reasons, "same project")
			}
			related = append(related, relatedNode{
				Node:   summarize(*n),
				Score:  score,
				Reason: strings.Join(reasons, ", "),
			})
		}
	}

	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Score > related[j].Score
	})
	return related
}

var ignoredWords = map[string]bool{"http": true, "https": true, "html": true, "www": true}

// significantWords returns the lowercased words of text longer than three
// characters
func significantWords(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len([]rune(w)) > 3 && !ignoredWords[w] {
			words[w] = true
		}
	}
	return words
}

func host(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
