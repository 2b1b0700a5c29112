// Package serve implements the local preview server: it builds the site,
// serves the output over HTTP, rebuilds on content or config changes and
// notifies connected browsers over SSE.
package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/ardlang/ardoc/internal/config"
	"github.com/ardlang/ardoc/internal/metrics"
	"github.com/ardlang/ardoc/internal/site"
)

// Server is the preview server.
type Server struct {
	configPath string
	recorder   metrics.Recorder
	registry   *prom.Registry
	hub        *LiveReloadHub

	// buildMu serializes builds: the watcher callback and the scheduled
	// rebuild job may fire at the same time, and with output cleaning one
	// build's RemoveAll must not race another's writes.
	buildMu sync.Mutex

	mu        sync.Mutex
	cfg       *config.Config
	generator *site.Generator
	mux       http.Handler
	lastHash  string
	lastBuild site.BuildOutcome
}

// New creates a preview server for the given loaded configuration. configPath
// is re-read when the config file changes on disk.
func New(cfg *config.Config, configPath string) *Server {
	s := &Server{configPath: configPath, recorder: metrics.NoopRecorder{}}
	if cfg.Serve.Metrics {
		s.registry = prom.NewRegistry()
		s.recorder = metrics.NewPrometheusRecorder(s.registry)
	}
	s.hub = NewLiveReloadHub(s.recorder)
	s.cfg = cfg
	s.generator = s.newGenerator(cfg)
	s.mux = s.buildMux(cfg, s.generator)
	return s
}

func (s *Server) newGenerator(cfg *config.Config) *site.Generator {
	return site.NewGenerator(cfg).
		SetRecorder(s.recorder).
		WithLiveReload(cfg.Serve.LiveReloadEnabled())
}

// Run builds the site, then serves it until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx)

	cfg := s.currentConfig()
	watcher, err := NewWatcher(cfg.Content.Dir, s.configPath, cfg.Serve.DebounceDuration(), func() {
		s.reloadAndRebuild(ctx)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	if interval := cfg.Serve.RebuildIntervalDuration(); interval > 0 {
		scheduler, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		if _, err := scheduler.NewJob(
			gocron.DurationJob(interval),
			gocron.NewTask(func() { s.rebuild(ctx) }),
			gocron.WithName("scheduled-rebuild"),
		); err != nil {
			return fmt.Errorf("schedule rebuild job: %w", err)
		}
		scheduler.Start()
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				slog.Error("scheduler shutdown", "error", err)
			}
		}()
		slog.Info("scheduled rebuilds enabled", "interval", interval)
	}

	addr := net.JoinHostPort("", strconv.Itoa(cfg.Serve.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("preview server listening", "addr", "http://localhost:"+strconv.Itoa(cfg.Serve.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handler dispatches to the current mux, which a config reload can swap out
// (a changed output directory must take effect without a restart).
func (s *Server) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		mux := s.mux
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

// buildMux assembles the HTTP routes: static site, health, livereload, metrics.
func (s *Server) buildMux(cfg *config.Config, gen *site.Generator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	if cfg.Serve.LiveReloadEnabled() {
		mux.Handle("/livereload", s.hub)
	}
	if cfg.Serve.Metrics && s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}
	mux.Handle("/", http.FileServer(http.Dir(gen.OutputDir())))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := map[string]string{
		"status":       "ok",
		"last_build":   string(s.lastBuild),
		"content_hash": s.lastHash,
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		slog.Debug("write health response", "error", err)
	}
}

func (s *Server) currentConfig() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// reloadAndRebuild re-reads the config file (picking up sidebar and site
// changes without a restart) and rebuilds. A broken config keeps the previous
// one so the preview stays up while the user fixes it.
func (s *Server) reloadAndRebuild(ctx context.Context) {
	if s.configPath != "" {
		if cfg, err := config.Load(s.configPath); err != nil {
			slog.Warn("config reload failed, keeping previous config", "error", err)
		} else {
			gen := s.newGenerator(cfg)
			s.mu.Lock()
			s.cfg = cfg
			s.generator = gen
			s.mux = s.buildMux(cfg, gen)
			s.mu.Unlock()
		}
	}
	s.rebuild(ctx)
}

// rebuild runs one build and broadcasts the new content hash on success.
// Builds are serialized through buildMu; a failed build leaves the previous
// output in place.
func (s *Server) rebuild(ctx context.Context) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.mu.Lock()
	gen := s.generator
	s.mu.Unlock()

	report, err := gen.Build(ctx)
	s.mu.Lock()
	s.lastBuild = report.Outcome
	if err == nil {
		s.lastHash = report.ContentHash
	}
	s.mu.Unlock()

	if err != nil {
		slog.Error("rebuild failed", "error", err)
		return
	}
	s.hub.Broadcast(report.ContentHash)
}
