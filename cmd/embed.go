package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/embeddings"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/ollama"
	"github.com/pders01/cascade/internal/store"
)

// maxEmbedChars keeps input within the model context (nomic-embed-text
// supports ~8K tokens, roughly 32K chars)
const maxEmbedChars = 30000

// newEmbedder returns a client for the configured model once Ollama is
// reachable and the model has been pulled
func newEmbedder(ctx context.Context) (*ollama.Client, error) {
	ollamaURL := config.GetOllamaURL()
	if !ollama.IsAvailable(ctx, ollamaURL) {
		return nil, fmt.Errorf("Ollama is not available at %s", ollamaURL)
	}

	client, err := ollama.NewClient(ollamaURL, config.GetEmbeddingModel())
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	if err := client.CheckModel(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// embeddingText is the text a node is embedded and keyword-matched by
func embeddingText(n *models.Node) string {
	var parts []string
	switch n.Type {
	case models.NodeLink:
		parts = append(parts, n.Text, n.URL)
	case models.NodeText:
		parts = append(parts, n.Text)
	default:
		return ""
	}
	if n.SourceURL != "" {
		parts = append(parts, n.SourceURL)
	}

	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if r := []rune(text); len(r) > maxEmbedChars {
		text = string(r[:maxEmbedChars])
	}
	return text
}

// embedBatchSize bounds how many texts go into one embed request
const embedBatchSize = 32

// embedNodes stores an embedding for each text or link node and returns how
// many were written
func embedNodes(ctx context.Context, s *store.Store, client *ollama.Client, nodes []models.Node) (int, error) {
	var (
		ids   []int64
		texts []string
	)
	for i := range nodes {
		if text := embeddingText(&nodes[i]); text != "" {
			ids = append(ids, nodes[i].ID)
			texts = append(texts, text)
		}
	}

	written := 0
	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		vectors, err := client.Embed(ctx, texts[start:end]...)
		if err != nil {
			return written, fmt.Errorf("failed to embed nodes %d-%d: %w", ids[start], ids[end-1], err)
		}
		for j, vec := range vectors {
			id := ids[start+j]
			if err := embeddings.Validate(vec); err != nil {
				return written, fmt.Errorf("invalid embedding for node %d: %w", id, err)
			}
			if err := s.PutEmbedding(ctx, id, client.GetModel(), vec); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
