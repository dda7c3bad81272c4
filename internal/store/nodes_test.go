package store

import (
	"context"
	"testing"
	"time"

	"github.com/pders01/cascade/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTextNodeFirstEdit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	node, err := s.AddTextNode(ctx, p.ID, "captured", models.Source{})
	require.NoError(t, err)

	updated, changed, err := s.UpdateTextNode(ctx, node.ID, "  rewritten \n")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, updated.HasEdited)
	assert.Equal(t, "captured", updated.OriginalText)
	assert.Equal(t, "rewritten", updated.EditedText)
	assert.Equal(t, "rewritten", updated.Text)

	stored, err := s.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Text, stored.Text)
	assert.Equal(t, updated.OriginalText, stored.OriginalText)
	assert.Equal(t, updated.EditedText, stored.EditedText)
	assert.True(t, stored.HasEdited)
}

func TestUpdateTextNodeManyEdits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	node, err := s.AddTextNode(ctx, p.ID, "v0", models.Source{})
	require.NoError(t, err)

	for _, content := range []string{"v1", "v2", " v3 "} {
		_, changed, err := s.UpdateTextNode(ctx, node.ID, content)
		require.NoError(t, err)
		require.True(t, changed)
	}

	stored, err := s.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, "v0", stored.OriginalText)
	assert.Equal(t, "v3", stored.Text)
	assert.Equal(t, "v3", stored.EditedText)
}

func TestUpdateTextNodeNoOpDoesNotWrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	clock := time.UnixMilli(10_000)
	s.now = func() time.Time { return clock }

	node, err := s.AddTextNode(ctx, p.ID, "same", models.Source{})
	require.NoError(t, err)
	before, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	_, changed, err := s.UpdateTextNode(ctx, node.ID, " same ")
	require.NoError(t, err)
	assert.False(t, changed)

	stored, err := s.GetNode(ctx, node.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasEdited)
	assert.Empty(t, stored.EditedText)

	after, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)

	// After an edit, repeating the same content is also a no-op
	_, changed, err = s.UpdateTextNode(ctx, node.ID, "different")
	require.NoError(t, err)
	require.True(t, changed)
	_, changed, err = s.UpdateTextNode(ctx, node.ID, "different")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdateTextNodeErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	_, _, err := s.UpdateTextNode(ctx, 12345, "x")
	assert.ErrorIs(t, err, ErrNodeNotFound)

	link, err := s.AddLinkNode(ctx, p.ID, "https://example.com", "Example", models.Source{})
	require.NoError(t, err)
	_, _, err = s.UpdateTextNode(ctx, link.ID, "x")
	assert.ErrorIs(t, err, ErrNotTextNode)
}

func TestReorderNodes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)

	a, _ := s.AddTextNode(ctx, p.ID, "a", models.Source{})
	b, _ := s.AddTextNode(ctx, p.ID, "b", models.Source{})
	c, _ := s.AddTextNode(ctx, p.ID, "c", models.Source{})

	require.NoError(t, s.ReorderNodes(ctx, p.ID, []int64{c.ID, a.ID, b.ID}))

	nodes, err := s.ListNodes(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, texts(nodes))
}

func TestReorderNodesIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := newProject(t, s)
	other := newProject(t, s)

	a, _ := s.AddTextNode(ctx, p.ID, "a", models.Source{})
	b, _ := s.AddTextNode(ctx, p.ID, "b", models.Source{})
	foreign, _ := s.AddTextNode(ctx, other.ID, "x", models.Source{})

	tests := []struct {
		name string
		ids  []int64
	}{
		{name: "node from another project", ids: []int64{b.ID, a.ID, foreign.ID}},
		{name: "missing node", ids: []int64{b.ID, a.ID, 9999}},
		{name: "duplicate node", ids: []int64{b.ID, b.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.ReorderNodes(ctx, p.ID, tt.ids))

			nodes, err := s.ListNodes(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "b"}, texts(nodes))
		})
	}
}

func texts(nodes []models.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Text
	}
	return out
}
