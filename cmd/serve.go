package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pders01/cascade/internal/config"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the capture daemon",
	Long: `Run the local daemon the browser extension talks to.

The daemon serves the relay, ingestion, store and export endpoints,
downloads dragged images and streams created nodes on /v1/events.
Changes to relay.ttl in the config file apply without a restart.

Example:
  cascade serve
  cascade serve --listen 127.0.0.1:9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (default from server.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	if viper.ConfigFileUsed() != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			ttl := config.GetRelayTTL()
			a.Cache.SetTTL(ttl)
			a.Logger.Info("config reloaded",
				zap.String("file", e.Name),
				zap.Duration("relayTTL", ttl))
		})
		viper.WatchConfig()
	}

	addr := serveListen
	if addr == "" {
		addr = config.GetListenAddr()
	}
	fmt.Fprintf(out, "cascade listening on http://%s\n", addr)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return a.Server().ListenAndServe(ctx, addr)
	})
	p.Go(func(ctx context.Context) error {
		if err := a.RunSink(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := p.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("daemon stopped: %w", err)
	}
	return nil
}
