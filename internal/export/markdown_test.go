package export

import (
	"context"
	"testing"

	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/testutil"
	"github.com/pders01/cascade/internal/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown(t *testing.T) {
	p := &models.Project{Name: "Notes"}
	nodes := []models.Node{
		{ID: 1, Type: models.NodeText, Text: "hello\r\nworld", SourceURL: "https://src.example"},
		{ID: 2, Type: models.NodeLink, Text: "Example", URL: "https://example.com"},
		{ID: 3, Type: models.NodeFile, FileName: "pic.png"},
	}

	out := RenderMarkdown(p, nodes, map[int64]string{3: "assets/pic-1.png"})

	assert.Equal(t, "# Notes\n"+
		"\nhello\nworld\n"+
		"\n<small>Source: https://src.example</small>\n"+
		"\n[Example](https://example.com)\n"+
		"\n![pic.png](assets/pic-1.png)\n", out)
}

func TestSyncMarkdown(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	p, err := s.CreateProject(ctx, "Journal", models.ProjectMarkdown)
	require.NoError(t, err)

	_, err = s.AddTextNode(ctx, p.ID, "first", models.Source{})
	require.NoError(t, err)
	_, err = s.AddImageNode(ctx, p.ID, "shot.png", testutil.PNG(64), models.Source{})
	require.NoError(t, err)

	v := vault.NewWithFs(testutil.MemFs())
	e := New(s, nil)

	res, err := e.SyncMarkdown(ctx, p.ID, v, s)
	require.NoError(t, err)
	assert.Equal(t, "Journal.md", res.File)
	assert.Equal(t, []string{"assets/shot.png"}, res.Assets)

	text, err := v.Read("Journal.md")
	require.NoError(t, err)
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "![shot.png](assets/shot.png)")

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Journal.md", got.FileHandle)

	// A second sync reuses the saved asset
	res, err = e.SyncMarkdown(ctx, p.ID, v, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"assets/shot.png"}, res.Assets)
	assert.False(t, v.Exists("assets/shot-1.png"))
}
