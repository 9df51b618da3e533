// Package app wires the distribution service together and hosts it over
// HTTP.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/louisbranch/takehome/internal/email"
	"github.com/louisbranch/takehome/internal/github"
	"github.com/louisbranch/takehome/internal/services/distribution/download"
	"github.com/louisbranch/takehome/internal/services/distribution/httpapi"
	"github.com/louisbranch/takehome/internal/services/distribution/registry"
	"github.com/louisbranch/takehome/internal/services/distribution/releasecache"
	"github.com/louisbranch/takehome/internal/services/distribution/storage/sqlite"
	"github.com/louisbranch/takehome/internal/services/distribution/webhook"
)

const shutdownTimeout = 10 * time.Second

// Config holds everything the distribution server needs to start.
type Config struct {
	Port          int
	DBPath        string
	GitHubOwner   string
	GitHubRepo    string
	GitHubToken   string
	WebhookSecret string
	BaseURL       string
	AssetMarker   string
}

// Server hosts the distribution service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
}

// New creates a configured distribution server listening on the configured
// port.
func New(cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}
	store, err := openStore(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	candidates := registry.New(store)
	provider := github.New(github.Config{
		Owner: cfg.GitHubOwner,
		Repo:  cfg.GitHubRepo,
		Token: cfg.GitHubToken,
	}, nil)
	releases := releasecache.New(store, provider, cfg.AssetMarker)
	downloads := download.New(candidates, releases)
	ingestor := webhook.New(releases, cfg.WebhookSecret, cfg.AssetMarker)
	sender := &email.LogSender{BaseURL: cfg.BaseURL}

	mux := http.NewServeMux()
	httpapi.New(candidates, downloads, ingestor, sender).RegisterRoutes(mux)

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a distribution server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStore()

	log.Printf("distribution server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	handleErr := func(err error) error {
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return handleErr(<-serveErr)
	case err := <-serveErr:
		return handleErr(err)
	}
}

func openStore(path string) (*sqlite.Store, error) {
	if path == "" {
		path = filepath.Join("data", "takehome.db")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
