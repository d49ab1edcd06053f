// Package api provides HTTP handlers and the main API server logic for IntentPipe.
//
// It exposes RESTful endpoints for chat turns, explicit flow control, and
// session inspection. The API integrates with the orchestrator, which owns
// all decision and session logic.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/IntentPipe/internal/orchestrator"
)

// DefaultAddr is the default API listen address.
const DefaultAddr = ":8080"

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server hosts the IntentPipe HTTP API.
type Server struct {
	orch *orchestrator.Orchestrator
	addr string
	srv  *http.Server
}

// NewServer creates an API server over the given orchestrator.
func NewServer(orch *orchestrator.Orchestrator, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{orch: orch, addr: cfg.Addr}
}

// routes registers all endpoint handlers on a fresh mux.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/chat", s.chatHandler)
	mux.HandleFunc("/api/flow/start", s.flowStartHandler)
	mux.HandleFunc("/api/flow/respond", s.flowRespondHandler)
	mux.HandleFunc("/api/flow/cancel/", s.flowCancelHandler)
	mux.HandleFunc("/api/flow/session/", s.flowSessionHandler)
	mux.HandleFunc("/api/flows/available", s.flowsAvailableHandler)
	mux.HandleFunc("/api/intents/with-flows", s.intentsWithFlowsHandler)
	return mux
}

// Run starts the HTTP server and blocks until the listener fails or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: IntentPipe API listening", "addr", s.addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server.Run: shutdown failed", "error", err)
			return err
		}
		slog.Info("Server.Run: server stopped")
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
