package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOllama answers the three endpoints the client uses. Embed requests
// get one vector per input, whose first element is the input index.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/":
			w.Write([]byte("Ollama is running"))
		case "/api/embed":
			var req struct {
				Input any `json:"input"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			n := 1
			if list, ok := req.Input.([]any); ok {
				n = len(list)
			}
			embeddings := make([][]float32, n)
			for i := range embeddings {
				embeddings[i] = []float32{float32(i), 0.5, 0.25}
			}
			json.NewEncoder(w).Encode(map[string]any{"model": "m", "embeddings": embeddings})
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{
				{"name": "custom"}, {"name": "nomic-embed-text:latest"},
			}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.GetModel())

	_, err = NewClient("localhost", "m")
	assert.Error(t, err)
	_, err = NewClient("http://", "m")
	assert.Error(t, err)
}

func TestIsAvailable(t *testing.T) {
	srv := fakeOllama(t)

	assert.True(t, IsAvailable(context.Background(), srv.URL))
	assert.False(t, IsAvailable(context.Background(), "http://127.0.0.1:1"))
	assert.False(t, IsAvailable(context.Background(), "not a url"))
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	c, err := NewClient(fakeOllama(t).URL, "custom")
	require.NoError(t, err)

	vectors, err := c.Embed(context.Background(), "a", "b", "c")
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for i, v := range vectors {
		assert.Equal(t, []float64{float64(i), 0.5, 0.25}, v)
	}

	vectors, err = c.Embed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, vectors)

	_, err = c.Embed(context.Background(), "a", "  ")
	assert.Error(t, err)
}

func TestGenerateEmbedding(t *testing.T) {
	c, err := NewClient(fakeOllama(t).URL, "custom")
	require.NoError(t, err)

	vec, err := c.GenerateEmbedding(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 0.25}, vec)

	_, err = c.GenerateEmbedding(context.Background(), "")
	assert.Error(t, err)
}

func TestCheckModel(t *testing.T) {
	srv := fakeOllama(t)

	tests := []struct {
		model   string
		wantErr bool
	}{
		{model: "custom"},
		{model: "nomic-embed-text"},
		{model: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c, err := NewClient(srv.URL, tt.model)
			require.NoError(t, err)

			err = c.CheckModel(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrModelNotFound)
				return
			}
			assert.NoError(t, err)
		})
	}
}
