package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/store"
	"github.com/spf13/viper"
)

// setupTest points the commands at a fresh store and captures their output
func setupTest(t *testing.T) *bytes.Buffer {
	t.Helper()

	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.Set("store.path", filepath.Join(t.TempDir(), "cascade.db"))
	viper.Set("log.level", "error")

	var buf bytes.Buffer
	oldOut, oldWarn := out, warnOut
	out, warnOut = &buf, io.Discard

	t.Cleanup(func() {
		out, warnOut = oldOut, oldWarn
		viper.Reset()
	})
	return &buf
}

// testStore opens the store the commands use
func testStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := openStore(context.Background())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// addText captures text into the inbox without waiting or embedding
func addText(t *testing.T, text string) {
	t.Helper()

	addProject = ""
	addNoEmbed = true
	addNoWait = true
	if err := runAdd(nil, []string{text}); err != nil {
		t.Fatalf("add command failed: %v", err)
	}
}
