// Package api exposes the backtest job service over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/jobs"
	applog "github.com/yourusername/turfsim/internal/logger"
	"github.com/yourusername/turfsim/internal/metrics"
)

// Server is the HTTP front of the job manager
type Server struct {
	manager  *jobs.Manager
	pool     *jobs.Pool
	defaults config.BacktestConfig
	logger   *logrus.Logger
	audit    *applog.AuditLogger
	server   *http.Server
	port     int
}

// NewServer creates the API server over the given manager and pool
func NewServer(manager *jobs.Manager, pool *jobs.Pool, cfg *config.Config, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{
		manager:  manager,
		pool:     pool,
		defaults: cfg.Backtest,
		logger:   logger,
		audit:    applog.NewAuditLogger(logger),
		port:     cfg.Server.Port,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Routes builds the request multiplexer
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/backtests", s.instrument("submit", s.handleSubmit))
	mux.HandleFunc("GET /api/v1/backtests", s.instrument("list", s.handleList))
	mux.HandleFunc("GET /api/v1/backtests/{id}", s.instrument("status", s.handleStatus))
	mux.HandleFunc("GET /api/v1/backtests/{id}/result", s.instrument("result", s.handleResult))
	mux.HandleFunc("POST /api/v1/backtests/{id}/cancel", s.instrument("cancel", s.handleCancel))
	return mux
}

// Start serves in the background until ctx stops
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.Routes()

	go func() {
		s.logger.WithField("port", s.port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown stops the server, letting in-flight requests finish
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("API server shutting down")
	return s.server.Shutdown(ctx)
}

// statusRecorder captures the response code for instrumentation
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(recorder, r)
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(recorder.status)).
			Observe(time.Since(start).Seconds())
	}
}
