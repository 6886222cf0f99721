// Package server serves the working tree over HTTP with listing fallbacks
// for anything that cannot be found.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	pwerrors "github.com/conneroisu/pagewatch/internal/errors"
	"github.com/conneroisu/pagewatch/internal/logging"
	"github.com/conneroisu/pagewatch/internal/version"
)

// HealthPath answers liveness probes without touching the filesystem.
const HealthPath = "/_health"

// Options configures a Server.
type Options struct {
	Host   string
	Port   int
	Logger logging.Logger
}

// Server is the HTTP front of a Handler.
type Server struct {
	handler    *Handler
	addr       string
	logger     logging.Logger
	httpServer *http.Server
	started    time.Time

	serverMutex  sync.RWMutex
	listener     net.Listener
	shutdownOnce sync.Once
	shutdownErr  error
}

// New creates a server for handler.
func New(handler *Handler, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	s := &Server{
		handler: handler,
		addr:    net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		logger:  logger.WithComponent("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle("/", handler)

	chain := NewChain(recoverPanics(s.logger), logRequests(s.logger))

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           chain.Apply(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Addr returns the bound address once Start is listening, or the
// configured one before that.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}

	return s.addr
}

// Listen binds the configured address. Start calls it when needed.
func (s *Server) Listen() error {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return pwerrors.NewIOError(pwerrors.CodeServerListen,
			fmt.Sprintf("cannot listen on %s", s.addr), err)
	}
	s.listener = ln

	return nil
}

// Start serves until ctx is done or Shutdown is called. A clean shutdown
// returns nil.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.serverMutex.Lock()
	ln := s.listener
	s.started = time.Now()
	s.serverMutex.Unlock()

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	})
	defer stop()

	s.logger.Info(ctx, "serving", "url", "http://"+ln.Addr().String(), "root", s.handler.Root())

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return pwerrors.NewIOError(pwerrors.CodeServerListen, "server error", err)
	}

	return nil
}

// Shutdown gracefully stops the server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "shutting down server")
		s.shutdownErr = s.httpServer.Shutdown(ctx)
	})

	return s.shutdownErr
}

// handleHealth returns the server health status for health checks
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.serverMutex.RLock()
	started := s.started
	s.serverMutex.RUnlock()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version.GetShortVersion(),
		"root":      s.handler.Root(),
	}
	if !started.IsZero() {
		health["uptime_seconds"] = int64(time.Since(started).Seconds())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.Warn(r.Context(), err, "failed to encode health response")
	}
}
