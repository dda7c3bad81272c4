// Package server exposes the capture pipeline over HTTP for the browser
// extension and other local clients.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pders01/cascade/internal/classify"
	"github.com/pders01/cascade/internal/export"
	"github.com/pders01/cascade/internal/ingest"
	"github.com/pders01/cascade/internal/metrics"
	"github.com/pders01/cascade/internal/relay"
	"github.com/pders01/cascade/internal/store"
	"go.uber.org/zap"
)

// Deps are the components the server routes requests to
type Deps struct {
	Store      *store.Store
	Cache      *relay.Cache
	Broker     *relay.Broker
	Router     *ingest.Router
	Sink       *ingest.ImageSink
	Classifier *classify.Classifier
	Exporter   *export.Exporter
	Hub        *Hub
	Metrics    *metrics.Collector
	Logger     *zap.Logger

	AllowedOrigins []string
}

// Server is the HTTP transport
type Server struct {
	store      *store.Store
	cache      *relay.Cache
	broker     *relay.Broker
	router     *ingest.Router
	sink       *ingest.ImageSink
	classifier *classify.Classifier
	exporter   *export.Exporter
	hub        *Hub
	metrics    *metrics.Collector
	logger     *zap.Logger
	origins    []string
}

// New creates a server. A nil Hub or Logger is replaced with a default.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := d.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Server{
		store:      d.Store,
		cache:      d.Cache,
		broker:     d.Broker,
		router:     d.Router,
		sink:       d.Sink,
		classifier: d.Classifier,
		exporter:   d.Exporter,
		hub:        hub,
		metrics:    d.Metrics,
		logger:     logger,
		origins:    d.AllowedOrigins,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(instrument(s.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/relay", s.handleRelay)
		r.Post("/classify", s.handleClassify)
		r.Get("/undo", s.pendingUndo)
		r.Post("/undo", s.handleUndo)
		r.Get("/search", s.search)
		r.Get("/events", s.handleEvents)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.listProjects)
			r.Post("/", s.createProject)
			r.Get("/inbox", s.inbox)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.getProject)
				r.Delete("/", s.deleteProject)
				r.Get("/nodes", s.listNodes)
				r.Put("/order", s.reorderNodes)
				r.Post("/drop", s.handleIngest(ingest.KindDrop))
				r.Post("/paste", s.handleIngest(ingest.KindPaste))
				r.Get("/export", s.exportProject)
			})
		})

		r.Route("/nodes/{nodeID}", func(r chi.Router) {
			r.Get("/", s.getNode)
			r.Patch("/", s.updateNode)
			r.Delete("/", s.deleteNode)
		})
	})

	return r
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

type healthResponse struct {
	Status           string   `json:"status"`
	RelayTTL         string   `json:"relayTtl,omitempty"`
	PendingDownloads int      `json:"pendingDownloads"`
	Subscribers      int      `json:"subscribers"`
	Resolvers        []string `json:"resolvers,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Subscribers: s.hub.Subscribers()}
	if s.cache != nil {
		resp.RelayTTL = s.cache.TTL().String()
	}
	if s.sink != nil {
		resp.PendingDownloads = s.sink.Pending()
	}
	if s.router != nil {
		resp.Resolvers = s.router.Resolvers()
	}
	s.respondJSON(w, http.StatusOK, resp)
}
