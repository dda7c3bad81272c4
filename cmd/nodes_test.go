package cmd

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestListJSON(t *testing.T) {
	buf := setupTest(t)

	addText(t, "first")
	addText(t, "https://example.com/article")

	buf.Reset()
	listJSON = true
	listType = "link"
	defer func() { listJSON, listType = false, "" }()

	if err := runList(nil, []string{}); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var nodes []nodeSummary
	if err := json.Unmarshal(buf.Bytes(), &nodes); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}
	if len(nodes) != 1 || nodes[0].Type != "link" || nodes[0].URL != "https://example.com/article" {
		t.Errorf("unexpected nodes: %+v", nodes)
	}
}

func TestListInvalidType(t *testing.T) {
	setupTest(t)

	listType = "video"
	defer func() { listType = "" }()
	if err := runList(nil, []string{}); err == nil {
		t.Error("expected error for invalid type")
	}
}

func TestEditAndDiff(t *testing.T) {
	buf := setupTest(t)
	addText(t, "line one\nline two")

	editStdin = false
	if err := runEdit(nil, []string{"1", "line one\nline 2"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Updated node 1") {
		t.Errorf("unexpected edit output:\n%s", buf.String())
	}

	buf.Reset()
	if err := runEdit(nil, []string{"1", "line one\nline 2"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Node 1 unchanged") {
		t.Errorf("expected unchanged notice, got:\n%s", buf.String())
	}

	buf.Reset()
	if err := runDiff(nil, []string{"1"}); err != nil {
		t.Fatalf("diff failed: %v", err)
	}
	diff := buf.String()
	for _, want := range []string{"--- original", "+++ latest", "-line two", "+line 2"} {
		if !strings.Contains(diff, want) {
			t.Errorf("diff missing %q:\n%s", want, diff)
		}
	}

	n, err := testStore(t).GetNode(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if n.OriginalText != "line one\nline two" {
		t.Errorf("original text changed: %q", n.OriginalText)
	}
}

func TestEditFromStdin(t *testing.T) {
	setupTest(t)
	addText(t, "draft")

	oldInput := editInput
	defer func() { editInput = oldInput; editStdin = false }()
	editInput = strings.NewReader("final")
	editStdin = true

	if err := runEdit(nil, []string{"1"}); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	n, err := testStore(t).GetNode(t.Context(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if n.Text != "final" || !n.HasEdited {
		t.Errorf("unexpected node after edit: %+v", n)
	}
}

func TestEditRejectsLinkNode(t *testing.T) {
	setupTest(t)
	addText(t, "https://example.com")

	editStdin = false
	if err := runEdit(nil, []string{"1", "new"}); err == nil {
		t.Error("expected error editing a link node")
	}
	if err := runDiff(nil, []string{"1"}); err == nil {
		t.Error("expected error diffing a link node")
	}
}

func TestRemoveAndUndo(t *testing.T) {
	buf := setupTest(t)
	addText(t, "a")
	addText(t, "b")
	addText(t, "c")

	if err := runRm(nil, []string{"2"}); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	if len(inboxNodes(t)) != 2 {
		t.Fatal("node was not deleted")
	}

	buf.Reset()
	undoPeek = true
	if err := runUndo(nil, []string{}); err != nil {
		t.Fatalf("undo --peek failed: %v", err)
	}
	undoPeek = false
	if !strings.Contains(buf.String(), "Would restore text node 2: b") {
		t.Errorf("unexpected peek output:\n%s", buf.String())
	}
	if len(inboxNodes(t)) != 2 {
		t.Fatal("peek must not restore")
	}

	buf.Reset()
	if err := runUndo(nil, []string{}); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !strings.Contains(buf.String(), "✓ Restored text node") {
		t.Errorf("unexpected undo output:\n%s", buf.String())
	}

	var texts []string
	for _, n := range inboxNodes(t) {
		texts = append(texts, n.Text)
	}
	if strings.Join(texts, ",") != "a,b,c" {
		t.Errorf("expected restored order a,b,c, got %v", texts)
	}

	if err := runUndo(nil, []string{}); err == nil || !strings.Contains(err.Error(), "nothing to undo") {
		t.Errorf("expected nothing to undo, got %v", err)
	}
}

func TestRemoveMissingNode(t *testing.T) {
	setupTest(t)

	if err := runRm(nil, []string{"42"}); err == nil {
		t.Error("expected error for missing node")
	}
	if err := runRm(nil, []string{"abc"}); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestReorder(t *testing.T) {
	setupTest(t)
	addText(t, "a")
	addText(t, "b")
	addText(t, "c")

	if err := runReorder(nil, []string{"inbox", "3", "1", "2"}); err != nil {
		t.Fatalf("reorder failed: %v", err)
	}

	var texts []string
	for _, n := range inboxNodes(t) {
		texts = append(texts, n.Text)
	}
	if strings.Join(texts, ",") != "c,a,b" {
		t.Errorf("expected c,a,b, got %v", texts)
	}
}

func TestShow(t *testing.T) {
	buf := setupTest(t)
	addText(t, "original words")

	editStdin = false
	if err := runEdit(nil, []string{"1", "edited words"}); err != nil {
		t.Fatal(err)
	}

	buf.Reset()
	if err := runShow(nil, []string{"1"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Node: 1", "Type:          text", "Original:\noriginal words", "Latest:\nedited words"} {
		if !strings.Contains(output, want) {
			t.Errorf("show output missing %q:\n%s", want, output)
		}
	}
}
