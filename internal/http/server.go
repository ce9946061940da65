// Package http serves the ledger JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"lavagens/internal/cache"
	"lavagens/internal/core"
	"lavagens/internal/ledger"
)

type Server struct {
	http.Server
	svc         *ledger.Service
	rateLimiter *rateLimiter

	// Month summaries are memoized per period and flushed wholesale on any
	// ledger change: one record can move a month's totals and the partner
	// balance together, so fine-grained invalidation buys nothing.
	summaryCache *cache.LRUCache[core.MonthlySummary]

	watchCancel  context.CancelFunc
	shutdownOnce sync.Once
}

// NewServer configures routes and cache invalidation, returning a
// ready-to-run server.
func NewServer(addr string, svc *ledger.Service) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:          svc,
		rateLimiter:  newRateLimiter(60),
		summaryCache: cache.NewLRUCache[core.MonthlySummary](100, 5*time.Minute),
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	go s.invalidateOnChange(watchCtx)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("POST /api/washes", s.withMiddleware(s.handleCreateWash))
	mux.HandleFunc("DELETE /api/washes/{id}", s.withMiddleware(s.handleDeleteWash))
	mux.HandleFunc("POST /api/purchases", s.withMiddleware(s.handleCreatePurchase))
	mux.HandleFunc("DELETE /api/purchases/{id}", s.withMiddleware(s.handleDeletePurchase))
	mux.HandleFunc("GET /api/withdrawals", s.withMiddleware(s.handleListWithdrawals))
	mux.HandleFunc("POST /api/withdrawals", s.withMiddleware(s.handleCreateWithdrawal))
	mux.HandleFunc("DELETE /api/withdrawals/{id}", s.withMiddleware(s.handleDeleteWithdrawal))

	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.handleSummary))
	mux.HandleFunc("GET /api/balance", s.withMiddleware(s.handleBalance))
	mux.HandleFunc("GET /api/report.csv", s.withMiddleware(s.handleReportCSV))

	mux.HandleFunc("GET /api/period", s.withMiddleware(s.handleGetPeriod))
	mux.HandleFunc("POST /api/period/shift", s.withMiddleware(s.handleShiftPeriod))
	mux.HandleFunc("POST /api/period/reset", s.withMiddleware(s.handleResetPeriod))

	return s
}

// invalidateOnChange flushes the summary cache whenever the store confirms
// a mutation. The channel closes when the watch context is cancelled.
func (s *Server) invalidateOnChange(ctx context.Context) {
	for change := range s.svc.Watch(ctx) {
		s.summaryCache.Purge()
		slog.Debug("Summary cache purged",
			"stream", change.Stream, "op", change.Op, "id", change.ID)
	}
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.watchCancel != nil {
			s.watchCancel()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds request ID tracing, logging, rate limiting of
// mutating requests, and baseline security headers.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		mutating := r.Method == http.MethodPost || r.Method == http.MethodDelete
		if mutating && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
