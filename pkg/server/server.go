// Package server mounts the protocol adapters on one HTTP listener.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/devicelab-dev/automation-gateway/pkg/logger"
)

// Config holds HTTP server configuration.
type Config struct {
	Listen      string // Address to listen on (e.g., "127.0.0.1:9008", ":9008")
	JSONRPCPath string // JSON-RPC endpoint; every other path goes to WebDriver
}

// Server serves the WebDriver and JSON-RPC adapters.
type Server struct {
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// New creates a server. webdriver receives every path except cfg.JSONRPCPath.
func New(cfg Config, webdriver, jsonrpc http.Handler) (*Server, error) {
	if cfg.JSONRPCPath == "" || cfg.JSONRPCPath[0] != '/' {
		return nil, fmt.Errorf("invalid JSON-RPC path %q", cfg.JSONRPCPath)
	}

	s := &Server{}
	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      Routes(cfg.JSONRPCPath, webdriver, jsonrpc),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Gestures and shell commands can be slow
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Routes builds the router. WebDriver does its own ordered route matching,
// so it receives every path under the catch-all.
func Routes(jsonrpcPath string, webdriver, jsonrpc http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Handle(jsonrpcPath, logRequest("jsonrpc", jsonrpc))
	r.Handle("/*", logRequest("webdriver", webdriver))
	return r
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		logger.Infow("http: server starting", "addr", ln.Addr().String())

		err := s.server.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			logger.Error("http: server error: %v", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("http: shutdown error: %v", err)
		return err
	}

	s.wg.Wait()
	logger.Info("http: server stopped")
	return nil
}

// logRequest wraps a handler to log requests.
func logRequest(adapter string, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		handler.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Debugw("http: request",
			"adapter", adapter,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
