package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pders01/cascade/internal/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration and data store",
	Long: `Write a default config file and create the capture database.

This command:
  - Creates ~/.config/cascade/config.toml if it doesn't exist
  - Creates the SQLite store and the inbox project

Run this once per machine.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

// fileConfig is the layout of config.toml
type fileConfig struct {
	Store struct {
		Path string `toml:"path"`
	} `toml:"store"`
	Server struct {
		Listen         string   `toml:"listen"`
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"server"`
	Relay struct {
		TTL string `toml:"ttl"`
	} `toml:"relay"`
	Fetch struct {
		Timeout          string `toml:"timeout"`
		MaxBytes         int64  `toml:"max_bytes"`
		UserAgent        string `toml:"user_agent"`
		CompletionBuffer int    `toml:"completion_buffer"`
	} `toml:"fetch"`
	Favicon struct {
		Service string `toml:"service"`
	} `toml:"favicon"`
	Inbox struct {
		Name string `toml:"name"`
	} `toml:"inbox"`
	Export struct {
		Dir string `toml:"dir"`
	} `toml:"export"`
	Vault struct {
		Root string `toml:"root"`
	} `toml:"vault"`
	Embeddings struct {
		Enabled   bool   `toml:"enabled"`
		Model     string `toml:"model"`
		OllamaURL string `toml:"ollama_url"`
	} `toml:"embeddings"`
	Search struct {
		KeywordWeight  float64 `toml:"keyword_weight"`
		SemanticWeight float64 `toml:"semantic_weight"`
	} `toml:"search"`
	Retention struct {
		Days             int      `toml:"days"`
		PreserveProjects []string `toml:"preserve_projects"`
	} `toml:"retention"`
	Log struct {
		Level       string `toml:"level"`
		Development bool   `toml:"development"`
	} `toml:"log"`
}

// defaultFileConfig snapshots the effective settings
func defaultFileConfig() fileConfig {
	var c fileConfig
	c.Store.Path = config.GetStorePath()
	c.Server.Listen = config.GetListenAddr()
	c.Server.AllowedOrigins = config.GetAllowedOrigins()
	c.Relay.TTL = config.GetRelayTTL().String()
	c.Fetch.Timeout = config.GetFetchTimeout().String()
	c.Fetch.MaxBytes = config.GetFetchMaxBytes()
	c.Fetch.UserAgent = config.GetFetchUserAgent()
	c.Fetch.CompletionBuffer = config.GetCompletionBuffer()
	c.Favicon.Service = config.GetFaviconService()
	c.Inbox.Name = config.GetInboxName()
	c.Export.Dir = config.GetExportDir()
	c.Vault.Root = config.GetVaultRoot()
	c.Embeddings.Enabled = config.GetEmbeddingsEnabled()
	c.Embeddings.Model = config.GetEmbeddingModel()
	c.Embeddings.OllamaURL = config.GetOllamaURL()
	c.Search.KeywordWeight = config.GetKeywordWeight()
	c.Search.SemanticWeight = config.GetSemanticWeight()
	c.Retention.Days = config.GetRetentionDays()
	c.Retention.PreserveProjects = config.GetPreserveProjects()
	c.Log.Level = config.GetLogLevel()
	c.Log.Development = config.GetLogDevelopment()
	return c
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = filepath.Join(configDir(), "config.toml")
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(out, "Config already exists: %s\n", configPath)
	} else {
		if err := writeConfig(configPath, defaultFileConfig()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Created default config: %s\n", configPath)
	}

	ctx := commandContext(cmd)
	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	inbox, err := s.EnsureInbox(ctx, config.GetInboxName())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Store ready: %s\n", s.Path())
	fmt.Fprintf(out, "  Inbox: %s (id %d)\n", inbox.Name, inbox.ID)
	fmt.Fprintln(out, "\n✓ cascade initialized successfully!")
	fmt.Fprintln(out, "  Start the daemon with: cascade serve")

	return nil
}

func writeConfig(path string, c fileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
