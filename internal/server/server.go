// Package server exposes the contact pipeline over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"
	goamiddleware "goa.design/goa/v3/http/middleware"

	"portfolio/internal/config"
	"portfolio/internal/metrics"
	"portfolio/internal/services"
)

// Submitter runs one submission through a pipeline.
type Submitter interface {
	Submit(ctx context.Context, req services.SubmissionRequest, meta services.ClientMetadata) (*services.SubmitResult, error)
}

// HealthChecker answers liveness and readiness probes.
type HealthChecker interface {
	Check() services.HealthResult
	Ready(ctx context.Context) error
}

// Server routes HTTP requests to the contact pipelines.
type Server struct {
	cfg       *config.Config
	contact   Submitter
	sendEmail Submitter
	health    HealthChecker
	log       *zap.Logger
}

// New creates a server. contact backs POST /contact and sendEmail backs
// POST /api/send-email.
func New(cfg *config.Config, contact, sendEmail Submitter, health HealthChecker, log *zap.Logger) *Server {
	return &Server{
		cfg:       cfg,
		contact:   contact,
		sendEmail: sendEmail,
		health:    health,
		log:       log.Named("http"),
	}
}

// Handler returns the routed handler wrapped in the middleware chain:
// security headers -> CORS -> request id -> logging -> metrics -> mux.
func (s *Server) Handler() http.Handler {
	mux := goahttp.NewMuxer()
	mux.Handle(http.MethodPost, "/contact", s.handleSubmit(s.contact, true))
	mux.Handle(http.MethodPost, "/api/send-email", s.handleSubmit(s.sendEmail, false))
	mux.Handle(http.MethodGet, "/health", s.handleHealth)
	mux.Handle(http.MethodGet, "/ready", s.handleReady)
	mux.Handle(http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP)

	var handler http.Handler = mux
	handler = metrics.PrometheusMiddleware(handler, "/contact", "/api/send-email", "/health", "/ready")
	handler = s.requestLogging(handler)
	handler = goamiddleware.PopulateRequestContext()(handler)
	handler = goamiddleware.RequestID()(handler)
	handler = s.cors(handler)
	handler = s.securityHeaders(handler)
	return handler
}
