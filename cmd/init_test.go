package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommand(t *testing.T) {
	buf := setupTest(t)

	oldCfg := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "config.toml")
	defer func() { cfgFile = oldCfg }()
	initForce = false

	if err := runInit(nil, []string{}); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		t.Fatalf("config was not written: %v", err)
	}
	for _, section := range []string{"[store]", "[relay]", "[fetch]", "[retention]"} {
		if !strings.Contains(string(data), section) {
			t.Errorf("config missing %s section", section)
		}
	}

	if !strings.Contains(buf.String(), "Inbox: Inbox") {
		t.Errorf("expected inbox to be reported, got:\n%s", buf.String())
	}

	projects, err := testStore(t).ListProjects(t.Context())
	if err != nil {
		t.Fatalf("failed to list projects: %v", err)
	}
	if len(projects) != 1 || !projects[0].IsInbox {
		t.Errorf("expected exactly the inbox, got %+v", projects)
	}
}

func TestInitWithExistingConfig(t *testing.T) {
	buf := setupTest(t)

	oldCfg := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "config.toml")
	defer func() { cfgFile = oldCfg }()

	if err := os.WriteFile(cfgFile, []byte("# mine\n"), 0644); err != nil {
		t.Fatal(err)
	}

	initForce = false
	if err := runInit(nil, []string{}); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	data, _ := os.ReadFile(cfgFile)
	if string(data) != "# mine\n" {
		t.Error("existing config was overwritten without --force")
	}
	if !strings.Contains(buf.String(), "Config already exists") {
		t.Errorf("expected existing config notice, got:\n%s", buf.String())
	}

	initForce = true
	defer func() { initForce = false }()
	if err := runInit(nil, []string{}); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	data, _ = os.ReadFile(cfgFile)
	if !strings.Contains(string(data), "[store]") {
		t.Error("--force did not rewrite the config")
	}
}
