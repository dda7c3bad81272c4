package cmd

import (
	"strings"
	"testing"

	"github.com/pders01/cascade/internal/models"
)

func TestRelateNodes(t *testing.T) {
	target := &models.Node{ID: 1, ProjectID: 1, Type: models.NodeText, Text: "goroutine scheduling internals", SourceURL: "https://go.dev/blog/sched"}
	candidates := []models.Node{
		*target,
		{ID: 2, ProjectID: 1, Type: models.NodeText, Text: "another quote", SourceURL: "https://go.dev/blog/sched"},
		{ID: 3, ProjectID: 2, Type: models.NodeText, Text: "scheduling fairness in goroutine pools"},
		{ID: 4, ProjectID: 1, Type: models.NodeText, Text: "cake recipe"},
	}

	related := relateNodes(target, candidates, nil)
	if len(related) != 2 {
		t.Fatalf("expected 2 related nodes, got %+v", related)
	}

	ids := map[int64]relatedNode{}
	for _, r := range related {
		ids[r.Node.ID] = r
	}
	if _, ok := ids[1]; ok {
		t.Error("target should not relate to itself")
	}
	if _, ok := ids[4]; ok {
		t.Error("unrelated node in the same project should be dropped")
	}
	if r := ids[2]; !strings.Contains(r.Reason, "same source page") || !strings.Contains(r.Reason, "same project") {
		t.Errorf("unexpected reason for node 2: %q", r.Reason)
	}
	if r := ids[3]; !strings.Contains(r.Reason, "2 shared words") {
		t.Errorf("unexpected reason for node 3: %q", r.Reason)
	}
}

func TestRelateNodesWithEmbeddings(t *testing.T) {
	target := &models.Node{ID: 1, Type: models.NodeText, Text: "alpha"}
	candidates := []models.Node{
		{ID: 2, Type: models.NodeText, Text: "beta"},
		{ID: 3, Type: models.NodeText, Text: "gamma"},
	}
	vectors := map[int64][]float64{
		1: {1, 0},
		2: {1, 0.1},
		3: {0, 1},
	}

	related := relateNodes(target, candidates, vectors)
	if len(related) != 1 || related[0].Node.ID != 2 {
		t.Fatalf("expected only node 2, got %+v", related)
	}
	if !strings.Contains(related[0].Reason, "similar") {
		t.Errorf("unexpected reason %q", related[0].Reason)
	}
}

func TestRelatedCommand(t *testing.T) {
	buf := setupTest(t)
	addText(t, "https://example.com/docs/intro")
	addText(t, "https://example.com/docs/advanced")
	addText(t, "pasta")

	buf.Reset()
	relatedJSON, relatedToon = false, false
	if err := runRelated(nil, []string{"1"}); err != nil {
		t.Fatalf("related failed: %v", err)
	}
	if !strings.Contains(buf.String(), "node 2") || !strings.Contains(buf.String(), "same host") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "node 3 ") {
		t.Errorf("node 3 should not be related:\n%s", buf.String())
	}
}

func TestSignificantWords(t *testing.T) {
	words := significantWords("The Go scheduler, see https://go.dev/sched.html")
	for _, w := range []string{"scheduler", "sched"} {
		if !words[w] {
			t.Errorf("expected %q in %v", w, words)
		}
	}
	for _, w := range []string{"the", "go", "see", "https", "html"} {
		if words[w] {
			t.Errorf("did not expect %q", w)
		}
	}
}
