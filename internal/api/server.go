// Package api serves the admin REST interface for the top-up queue.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/wallet-topups/internal/engine"
	"github.com/Veraticus/wallet-topups/internal/metrics"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/monday"
)

// BasePath prefixes every authenticated route.
const BasePath = "/wallet-topups"

// BoardDirectory browses a monday.com account.
type BoardDirectory interface {
	TestConnection(ctx context.Context) (*monday.Account, error)
	ListBoards(ctx context.Context) ([]model.Board, error)
	ListColumns(ctx context.Context, boardID string) ([]model.BoardColumn, error)
}

// BoardDirectoryFactory builds a BoardDirectory for an API token.
type BoardDirectoryFactory func(token string) BoardDirectory

// Server is the admin HTTP API.
type Server struct {
	engine         *engine.Engine
	boards         BoardDirectoryFactory
	syncStats      func() monday.SyncStats
	logger         *slog.Logger
	tokens         map[string]string
	version        string
	metricsEnabled bool
}

// NewServer creates an API server. tokens maps bearer tokens to admin names.
func NewServer(e *engine.Engine, tokens map[string]string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  e,
		tokens:  tokens,
		logger:  logger,
		version: "dev",
		boards: func(token string) BoardDirectory {
			return monday.NewClient(token)
		},
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetBoardDirectory overrides how monday.com clients are built.
func (s *Server) SetBoardDirectory(f BoardDirectoryFactory) { s.boards = f }

// SetSyncStats exposes board sync counters on /stats.
func (s *Server) SetSyncStats(f func() monday.SyncStats) { s.syncStats = f }

// SetVersion sets the version reported by /health.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(s.instrument)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": s.version,
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route(BasePath, func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/stats", s.handleStats)

		r.Get("/pending", s.handleListPending)
		r.Post("/pending", s.handleCreatePending)
		r.Get("/pending/{id}", s.handleGetPending)
		r.Put("/pending/{id}/approve", s.handleApprove)
		r.Put("/pending/{id}/reject", s.handleReject)

		r.Get("/rules", s.handleGetRules)
		r.Put("/rules", s.handlePutRules)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Get("/gmail/status", s.handleGmailStatus)
		r.Post("/gmail/process", s.handleGmailProcess)
		r.Get("/gmail/processed", s.handleGmailProcessed)

		r.Get("/monday/config", s.handleGetBoardConfig)
		r.Put("/monday/config", s.handlePutBoardConfig)
		r.Get("/monday/boards", s.handleListBoards)
		r.Get("/monday/boards/{id}/columns", s.handleListColumns)
		r.Post("/monday/test", s.handleTestBoard)

		r.Get("/wallets/{userID}", s.handleGetWallet)
	})

	return r
}

// instrument records request latency by route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
