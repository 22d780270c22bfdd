// Package server exposes the reply pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"replydesk/internal/common/logger"
	"replydesk/internal/common/observability"
	"replydesk/internal/models"
	"replydesk/internal/pipeline"
)

// ProfileResolver is the profile/entitlement collaborator invoked
// before the pipeline runs. entitled=false blocks the request.
type ProfileResolver interface {
	Resolve(ctx context.Context, accountID string) (profile models.SellerProfile, entitled bool, err error)
}

// UsageReader serves the per-account daily usage aggregate.
type UsageReader interface {
	Daily(ctx context.Context, accountID, date string) (models.UsageEvent, error)
}

type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg      Config
	pipeline *pipeline.Pipeline
	profiles ProfileResolver
	usage    UsageReader
	obs      *observability.Observability
	logger   logger.Logger
	httpSrv  *http.Server
}

func New(cfg Config, p *pipeline.Pipeline, profiles ProfileResolver, usage UsageReader, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: p,
		profiles: profiles,
		usage:    usage,
		obs:      obs,
		logger:   log.With(map[string]interface{}{"component": "server"}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/replies/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/replies/modify", s.handleModify)
	mux.HandleFunc("GET /api/usage/daily", s.handleUsageDaily)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// Handler returns the full handler chain, used directly by tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{"addr": s.httpSrv.Addr})
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
