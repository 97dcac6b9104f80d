package handlers

import (
	"net/http"
	"time"

	config "github.com/avvvet/cardkey-services/configs"
	"github.com/avvvet/cardkey-services/internal/cardsvc/web"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/jwtauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the full middleware stack and mounts every route.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()
	c := config.CORS(h.cfg.AllowedOrigins)

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(h.cfg.RateLimit, 1*time.Minute))

	h.SetRoutes(r)
	return r
}

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.NotFound(h.NotFoundHandler)
	r.MethodNotAllowed(h.MethodNotAllowedHandler)

	authLimit := httprate.LimitByIP(h.cfg.AuthRateLimit, 1*time.Minute)

	if h.cfg.AdminUIEnabled {
		web.SetRoutes(r)
	}
	if h.cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.With(authLimit).Post("/admin-auth", h.AdminAuthHandler)

	r.Group(func(r chi.Router) {
		h.useAdminAuth(r)
		r.Get("/api", h.ListUnusedHandler)
	})

	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)
		r.With(authLimit, h.RedeemKeyAuthenticator).Post("/redeem", h.RedeemHandler)
		if h.cfg.VerifyPassword != "" {
			r.With(authLimit).Post("/verify-password", h.VerifyPasswordHandler)
		}

		// Secure routes
		r.Group(func(r chi.Router) {
			h.useAdminAuth(r)

			r.Get("/cards", h.ListUnusedHandler)
			r.Get("/cards/{code}", h.LookupHandler)
			r.Get("/stats", h.StatsHandler)
			if h.cfg.GenerateEnabled {
				r.Post("/generate", h.GenerateHandler)
			}
		})
	})
}

// SetPasswordRoutes mounts only the password verification endpoint.
func (h *Handler) SetPasswordRoutes(r *chi.Mux) {
	r.NotFound(h.NotFoundHandler)
	r.MethodNotAllowed(h.MethodNotAllowedHandler)

	authLimit := httprate.LimitByIP(h.cfg.AuthRateLimit, 1*time.Minute)
	r.With(authLimit).Post("/api/verify_password", h.VerifyPasswordHandler)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.With(authLimit).Post("/verify-password", h.VerifyPasswordHandler)
	})
}

func (h *Handler) useAdminAuth(r chi.Router) {
	if !h.cfg.AdminAuthEnabled {
		return
	}
	r.Use(jwtauth.Verifier(h.tokenAuth))
	r.Use(h.AdminAuthenticator)
}
