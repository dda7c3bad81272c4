package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pders01/cascade/internal/app"
	"github.com/pders01/cascade/internal/config"
	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/logging"
	"github.com/pders01/cascade/internal/models"
	"github.com/pders01/cascade/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func appConfig() app.Config {
	return app.Config{
		StorePath: config.GetStorePath(),
		RelayTTL:  config.GetRelayTTL(),
		Fetch: fetch.Config{
			Timeout:   config.GetFetchTimeout(),
			MaxBytes:  config.GetFetchMaxBytes(),
			UserAgent: config.GetFetchUserAgent(),
			Buffer:    config.GetCompletionBuffer(),
		},
		FaviconTemplate: config.GetFaviconService(),
		InboxName:       config.GetInboxName(),
		AllowedOrigins:  config.GetAllowedOrigins(),
	}
}

func newLogger() *zap.Logger {
	logger, err := logging.New(config.GetLogLevel(), config.GetLogDevelopment())
	if err != nil {
		warnf("invalid log settings, logging disabled: %v", err)
		return zap.NewNop()
	}
	return logger
}

// openApp wires the full pipeline
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, appConfig(), newLogger())
}

// openStore opens just the node store
func openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(ctx, config.GetStorePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return s, nil
}

// resolveProject finds a project by id or name. An empty reference is the
// inbox, created on demand.
func resolveProject(ctx context.Context, s *store.Store, ref string) (*models.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "inbox") {
		return s.EnsureInbox(ctx, config.GetInboxName())
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		p, err := s.GetProject(ctx, id)
		if err == nil || !errors.Is(err, store.ErrProjectNotFound) {
			return p, err
		}
	}
	return s.FindProject(ctx, ref)
}

func parseNodeID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid node id: %s", arg)
	}
	return id, nil
}

func warnf(format string, args ...any) {
	fmt.Fprintf(warnOut, "Warning: "+format+"\n", args...)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
