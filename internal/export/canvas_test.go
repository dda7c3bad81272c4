package export

import (
	"fmt"
	"testing"

	"github.com/pders01/cascade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() IDFunc {
	i := 0
	return func() string {
		i++
		return fmt.Sprintf("id-%d", i)
	}
}

func TestBuildCanvasLayout(t *testing.T) {
	var nodes []models.Node
	for i := 0; i < 6; i++ {
		nodes = append(nodes, models.Node{ID: int64(i + 1), Type: models.NodeText, Text: "t"})
	}
	nodes[5].Type = models.NodeLink
	nodes[5].URL = "https://example.com"

	doc, attachments := BuildCanvas(nodes, counter())
	require.Len(t, doc.Nodes, 6)
	assert.Empty(t, attachments)
	assert.NotNil(t, doc.Edges)

	tests := []struct {
		index  int
		x, y   int
		height int
	}{
		{0, 0, 0, TextHeight},
		{3, 3 * 450, 0, TextHeight},
		{4, 0, TextHeight + Gap, TextHeight},
		{5, 450, LinkHeight + Gap, LinkHeight},
	}
	for _, tt := range tests {
		cn := doc.Nodes[tt.index]
		assert.Equal(t, tt.x, cn.X, "x of node %d", tt.index)
		assert.Equal(t, tt.y, cn.Y, "y of node %d", tt.index)
		assert.Equal(t, CardWidth, cn.Width)
		assert.Equal(t, tt.height, cn.Height, "height of node %d", tt.index)
	}
	assert.Equal(t, "id-1", doc.Nodes[0].ID)
}

func TestBuildCanvasContent(t *testing.T) {
	nodes := []models.Node{
		{ID: 1, Type: models.NodeText, Text: "a\r\nb\rc"},
		{ID: 2, Type: models.NodeLink, Text: "Title", URL: "https://example.com/x"},
		{ID: 3, Type: models.NodeFile, FileName: "shot.png", FileData: []byte("one")},
		{ID: 4, Type: models.NodeFile, FileName: "shot.png", FileData: []byte("two")},
		{ID: 5, Type: models.NodeFile, FileData: []byte("three")},
	}

	doc, attachments := BuildCanvas(nodes, nil)

	require.NotNil(t, doc.Nodes[0].Text)
	assert.Equal(t, "a\nb\nc", *doc.Nodes[0].Text)
	assert.Equal(t, "text", doc.Nodes[0].Type)

	link := doc.Nodes[1]
	assert.Equal(t, "link", link.Type)
	require.NotNil(t, link.URL)
	assert.Equal(t, "https://example.com/x", *link.URL)
	assert.Nil(t, link.Text)
	assert.Nil(t, link.File)

	require.Len(t, attachments, 3)
	assert.Equal(t, "attachments/shot.png", attachments[0].Path)
	assert.Equal(t, "attachments/shot-1.png", attachments[1].Path)
	assert.Equal(t, "attachments/image-5.png", attachments[2].Path)
	assert.Equal(t, "attachments/shot-1.png", *doc.Nodes[3].File)

	assert.NotEqual(t, doc.Nodes[0].ID, doc.Nodes[1].ID)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "a-b-c", SafeName("a/b:c"))
	assert.Equal(t, "plain", SafeName(" plain "))
}
