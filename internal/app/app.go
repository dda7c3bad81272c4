// Package app assembles the capture pipeline from its parts.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/cascade/internal/classify"
	"github.com/pders01/cascade/internal/export"
	"github.com/pders01/cascade/internal/fetch"
	"github.com/pders01/cascade/internal/ingest"
	"github.com/pders01/cascade/internal/logging"
	"github.com/pders01/cascade/internal/metrics"
	"github.com/pders01/cascade/internal/relay"
	"github.com/pders01/cascade/internal/server"
	"github.com/pders01/cascade/internal/store"
	"go.uber.org/zap"
)

// Config is everything needed to build an App
type Config struct {
	StorePath       string
	RelayTTL        time.Duration
	Fetch           fetch.Config
	FaviconTemplate string
	InboxName       string
	AllowedOrigins  []string
}

// App is a wired pipeline: store, relay, fetch, ingestion, export and
// the HTTP server over them.
type App struct {
	Store      *store.Store
	Cache      *relay.Cache
	Broker     *relay.Broker
	Fetch      *fetch.Relay
	Sink       *ingest.ImageSink
	Router     *ingest.Router
	Classifier *classify.Classifier
	Exporter   *export.Exporter
	Hub        *server.Hub
	Metrics    *metrics.Collector
	Logger     *zap.Logger

	origins []string
}

// New opens the store and wires every component
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	s, err := store.Open(ctx, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	m := metrics.NewCollector()
	favicons := ingest.NewFavicons(cfg.FaviconTemplate)
	hub := server.NewHub(logger.Named("events"))

	cache := relay.NewCache(cfg.RelayTTL, relay.WithExpireHook(func() { m.ObserveRelay("expired") }))
	broker := relay.NewBroker(cache, nil, favicons.For, logger.Named("relay")).
		WithObserver(m.ObserveRelay)

	fetcher := fetch.New(cfg.Fetch, logger.Named("fetch")).WithObserver(m.ObserveFetch)
	sink := ingest.NewImageSink(s, hub, favicons, logger.Named("sink"))
	router := ingest.NewRouter(s, fetcher, sink, logger.Named("ingest"),
		ingest.WithRelay(broker),
		ingest.WithFavicons(favicons),
		ingest.WithNotifier(hub),
		ingest.WithObserver(m.ObserveIngestion),
		ingest.WithInboxName(cfg.InboxName),
	)
	broker.WithImages(router)

	return &App{
		Store:      s,
		Cache:      cache,
		Broker:     broker,
		Fetch:      fetcher,
		Sink:       sink,
		Router:     router,
		Classifier: classify.New(broker, logger.Named("classify")),
		Exporter:   export.New(s, logger.Named("export")).WithObserver(m.ObserveExport),
		Hub:        hub,
		Metrics:    m,
		Logger:     logger,
		origins:    cfg.AllowedOrigins,
	}, nil
}

// RunSink persists image completions until ctx ends
func (a *App) RunSink(ctx context.Context) error {
	return a.Sink.Run(ctx, a.Fetch.Completions())
}

// Server returns the HTTP server over the app
func (a *App) Server() *server.Server {
	return server.New(server.Deps{
		Store:          a.Store,
		Cache:          a.Cache,
		Broker:         a.Broker,
		Router:         a.Router,
		Sink:           a.Sink,
		Classifier:     a.Classifier,
		Exporter:       a.Exporter,
		Hub:            a.Hub,
		Metrics:        a.Metrics,
		Logger:         a.Logger.Named("http"),
		AllowedOrigins: a.origins,
	})
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
