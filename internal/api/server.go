package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"harborview/internal/config"
	"harborview/internal/metrics"
	"harborview/internal/services"
)

// Server wires the services to the HTTP surface
type Server struct {
	cfg       *config.Config
	contact   *services.ContactService
	quote     *services.QuoteService
	analytics *services.AnalyticsService
	partners  *services.PartnerService
	auth      *services.AuthService
	health    *services.HealthService
}

// NewServer creates the HTTP server wiring
func NewServer(
	cfg *config.Config,
	contact *services.ContactService,
	quote *services.QuoteService,
	analytics *services.AnalyticsService,
	partners *services.PartnerService,
	auth *services.AuthService,
	health *services.HealthService,
) *Server {
	return &Server{
		cfg:       cfg,
		contact:   contact,
		quote:     quote,
		analytics: analytics,
		partners:  partners,
		auth:      auth,
		health:    health,
	}
}

// Routes builds the router with the full middleware chain
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(securityHeaders)
	r.Use(s.corsMiddleware)
	r.Use(requestLogging)
	r.Use(metrics.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// Public form endpoints sit behind a fixed per-IP quota
		r.Group(func(r chi.Router) {
			window := time.Duration(s.cfg.RateLimit.WindowMinutes) * time.Minute
			r.Use(httprate.LimitByIP(s.cfg.RateLimit.Requests, window))
			r.Post("/contact", s.handleContactSubmit)
			r.Post("/quote", s.handleQuoteSubmit)
		})

		r.Post("/analytics", s.handleAnalyticsTrack)
		r.Get("/partners", s.handlePartnersList)
		r.Post("/auth/login", s.handleLogin)

		// Administrative routes, all behind the auth boundary
		r.Group(func(r chi.Router) {
			r.Use(s.requireStaff)

			r.Get("/auth/me", s.handleMe)

			r.Get("/contact", s.handleContactList)
			r.Get("/contact/stats/summary", s.handleContactStats)
			r.Get("/contact/{id}", s.handleContactGet)
			r.Patch("/contact/{id}", s.handleContactUpdate)
			r.Delete("/contact/{id}", s.handleContactDelete)

			r.Get("/quote", s.handleQuoteList)
			r.Get("/quote/stats/summary", s.handleQuoteStats)
			r.Get("/quote/{id}", s.handleQuoteGet)
			r.Patch("/quote/{id}", s.handleQuoteUpdate)
			r.Delete("/quote/{id}", s.handleQuoteDelete)
			r.Post("/quote/{id}/quoted", s.handleQuoteMarkQuoted)
			r.Post("/quote/{id}/converted", s.handleQuoteMarkConverted)
			r.Post("/quote/{id}/declined", s.handleQuoteMarkDeclined)

			r.Get("/analytics/events", s.handleAnalyticsEvents)
			r.Get("/analytics/summary", s.handleAnalyticsSummary)
			r.Get("/analytics/conversion-funnel", s.handleAnalyticsFunnel)
			r.Delete("/analytics/cleanup", s.handleAnalyticsCleanup)
		})
	})

	return r
}
