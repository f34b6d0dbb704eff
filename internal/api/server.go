// Package api is the HTTP surface: snapshot and history reads, manual
// refresh, runtime cadence control, health, Prometheus metrics, and
// pass-through proxies for the raw upstream feeds.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rafaelq/floodwatch/internal/flood"
)

// Refresher triggers refresh cycles and reports the last outcome.
type Refresher interface {
	Refresh(ctx context.Context) (*flood.Snapshot, error)
	LastSnapshot() *flood.Snapshot
}

// HistoryStore reads persisted snapshots and notable events.
type HistoryStore interface {
	History(ctx context.Context, limit int) ([]flood.Entry, error)
	RecentEvents(ctx context.Context, limit int) ([]flood.Event, error)
	LatestEntry(ctx context.Context) (*flood.Entry, error)
}

// IntervalController adjusts the polling cadence while running.
type IntervalController interface {
	Interval() time.Duration
	SetInterval(d time.Duration) error
}

// Options carries the server's wiring that isn't a collaborator.
type Options struct {
	Addr           string
	AllowedOrigins []string
	StaticDir      string
	// Proxies maps feed names to raw upstream URLs for /proxy/{feed}.
	Proxies map[string]string
}

type Server struct {
	addr      string
	refresher Refresher
	store     HistoryStore
	intervals IntervalController
	proxies   map[string]string
	origins   []string
	staticDir string
	client    *http.Client
	logger    *slog.Logger
}

func NewServer(refresher Refresher, store HistoryStore, intervals IntervalController, opts Options, logger *slog.Logger) *Server {
	return &Server{
		addr:      opts.Addr,
		refresher: refresher,
		store:     store,
		intervals: intervals,
		proxies:   opts.Proxies,
		origins:   opts.AllowedOrigins,
		staticDir: opts.StaticDir,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/history", s.handleHistory)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/summary", s.handleSummary)
	r.Post("/api/refresh", s.handleRefresh)
	r.Put("/api/interval", s.handleInterval)

	r.Get("/proxy/{feed}", s.handleProxy)

	if s.staticDir != "" {
		fs := http.FileServer(http.Dir(s.staticDir))
		r.Handle("/*", fs)
	}

	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("http server listening", "addr", s.addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
