package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultFaviconService is formatted with the hostname
	DefaultFaviconService = "https://www.google.com/s2/favicons?domain=%s&sz=128"
	// DefaultRelayTTL is how long an unclaimed drag payload survives
	DefaultRelayTTL = 5 * time.Second
)

// SetDefaults registers default values for every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("server.listen", "127.0.0.1:7878")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:*"})
	v.SetDefault("relay.ttl", DefaultRelayTTL)
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.max_bytes", 20*1024*1024)
	v.SetDefault("fetch.user_agent", "cascade/0.1")
	v.SetDefault("fetch.completion_buffer", 16)
	v.SetDefault("favicon.service", DefaultFaviconService)
	v.SetDefault("inbox.name", "Inbox")
	v.SetDefault("export.dir", ".")
	v.SetDefault("vault.root", "")
	v.SetDefault("embeddings.enabled", false)
	v.SetDefault("embeddings.model", "nomic-embed-text")
	v.SetDefault("embeddings.ollama_url", "http://localhost:11434")
	v.SetDefault("search.keyword_weight", 0.3)
	v.SetDefault("search.semantic_weight", 0.7)
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.preserve_projects", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// DefaultStorePath returns the database location under the user data dir
func DefaultStorePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cascade", "cascade.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cascade.db"
	}
	return filepath.Join(home, ".local", "share", "cascade", "cascade.db")
}

// GetStorePath returns the SQLite database path
func GetStorePath() string {
	return expandHome(viper.GetString("store.path"))
}

// GetListenAddr returns the address the daemon listens on
func GetListenAddr() string {
	return viper.GetString("server.listen")
}

// GetAllowedOrigins returns the CORS origins allowed to call the daemon
func GetAllowedOrigins() []string {
	return viper.GetStringSlice("server.allowed_origins")
}

// GetRelayTTL returns the drag payload expiry window
func GetRelayTTL() time.Duration {
	ttl := viper.GetDuration("relay.ttl")
	if ttl <= 0 {
		return DefaultRelayTTL
	}
	return ttl
}

// GetFetchTimeout returns the image download timeout
func GetFetchTimeout() time.Duration {
	return viper.GetDuration("fetch.timeout")
}

// GetFetchMaxBytes returns the largest accepted image body
func GetFetchMaxBytes() int64 {
	return viper.GetInt64("fetch.max_bytes")
}

// GetFetchUserAgent returns the User-Agent sent with image downloads
func GetFetchUserAgent() string {
	return viper.GetString("fetch.user_agent")
}

// GetCompletionBuffer returns the size of the image completion queue
func GetCompletionBuffer() int {
	n := viper.GetInt("fetch.completion_buffer")
	if n < 1 {
		return 1
	}
	return n
}

// GetFaviconService returns the favicon URL template
func GetFaviconService() string {
	return viper.GetString("favicon.service")
}

// GetInboxName returns the name given to a newly created inbox
func GetInboxName() string {
	return viper.GetString("inbox.name")
}

// GetExportDir returns the default directory for exported archives
func GetExportDir() string {
	return expandHome(viper.GetString("export.dir"))
}

// GetVaultRoot returns the local folder markdown projects are synced into
func GetVaultRoot() string {
	return expandHome(viper.GetString("vault.root"))
}

// GetEmbeddingsEnabled returns whether embeddings generation is enabled
func GetEmbeddingsEnabled() bool {
	return viper.GetBool("embeddings.enabled")
}

// GetEmbeddingModel returns the embedding model name
func GetEmbeddingModel() string {
	return viper.GetString("embeddings.model")
}

// GetOllamaURL returns the Ollama API URL
func GetOllamaURL() string {
	return viper.GetString("embeddings.ollama_url")
}

// GetKeywordWeight returns the weight for keyword search (0.0-1.0)
func GetKeywordWeight() float64 {
	return viper.GetFloat64("search.keyword_weight")
}

// GetSemanticWeight returns the weight for semantic search (0.0-1.0)
func GetSemanticWeight() float64 {
	return viper.GetFloat64("search.semantic_weight")
}

// GetRetentionDays returns how long an empty project is kept
func GetRetentionDays() int {
	return viper.GetInt("retention.days")
}

// GetPreserveProjects returns project names that are never pruned
func GetPreserveProjects() []string {
	return viper.GetStringSlice("retention.preserve_projects")
}

// ShouldPreserve checks if a project with the given name is exempt from pruning
func ShouldPreserve(name string) bool {
	for _, p := range GetPreserveProjects() {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// GetLogLevel returns the zap level name
func GetLogLevel() string {
	return viper.GetString("log.level")
}

// GetLogDevelopment returns whether to use the human-readable log encoder
func GetLogDevelopment() bool {
	return viper.GetBool("log.development")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
