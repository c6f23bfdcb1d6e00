// Package server exposes the analysis pipeline over HTTP. Request
// handling is fully stateless: every request carries everything it
// needs, and concurrent requests share nothing.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LuckyMan0277/saju-app/internal/inference"
	"github.com/LuckyMan0277/saju-app/internal/saju"
)

// Server owns the HTTP listener and the two pipeline stages.
type Server struct {
	normalizer *saju.Normalizer
	analyst    *saju.Analyst
	log        *zap.Logger
	httpServer *http.Server
}

// New creates a Server bound to addr, backed by the given gateway.
func New(addr string, client inference.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		normalizer: saju.NewNormalizer(client),
		analyst:    saju.NewAnalyst(client),
		log:        log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/get-saju", s.handleGetSaju)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           withCORS(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's root handler, CORS included.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withCORS allows the browser-based form client to call the API from
// another origin, including the OPTIONS preflight.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestID tags one request's log lines.
func requestID() string { return uuid.NewString() }
