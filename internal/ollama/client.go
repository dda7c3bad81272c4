// Package ollama generates embeddings with a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	// DefaultModel is the recommended embedding model
	DefaultModel = "nomic-embed-text"
	// DefaultURL is the default Ollama API endpoint
	DefaultURL = "http://localhost:11434"

	probeTimeout = 2 * time.Second
)

// ErrModelNotFound is returned by CheckModel when the model has not been pulled
var ErrModelNotFound = errors.New("embedding model not found")

// Client embeds text with one model
type Client struct {
	api   *api.Client
	model string
}

// NewClient creates a client for the Ollama server at rawURL. Empty
// arguments fall back to DefaultURL and DefaultModel.
func NewClient(rawURL, model string) (*Client, error) {
	base, err := baseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: api.NewClient(base, http.DefaultClient), model: model}, nil
}

func baseURL(rawURL string) (*url.URL, error) {
	if rawURL == "" {
		rawURL = DefaultURL
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", rawURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ollama url %q: scheme and host are required", rawURL)
	}
	return base, nil
}

// IsAvailable reports whether an Ollama server answers at rawURL
func IsAvailable(ctx context.Context, rawURL string) bool {
	base, err := baseURL(rawURL)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Embed returns one vector per input, in input order
func (c *Client) Embed(ctx context.Context, texts ...string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("input %d is empty", i)
		}
	}

	var input any = texts
	if len(texts) == 1 {
		input = texts[0]
	}
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: c.model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vec := make([]float64, len(e))
		for j, v := range e {
			vec[j] = float64(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// GenerateEmbedding embeds a single text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CheckModel verifies the model has been pulled. Names match with or
// without the ":latest" tag.
func (c *Client) CheckModel(ctx context.Context) error {
	list, err := c.api.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == c.model || m.Name == c.model+":latest" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (run: ollama pull %s)", ErrModelNotFound, c.model, c.model)
}

// GetModel returns the model being used
func (c *Client) GetModel() string {
	return c.model
}
