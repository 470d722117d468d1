package http

import (
	"context"
	"net/http"

	"github.com/go-api-auth/internal/application/registration"
	"github.com/go-api-auth/internal/application/session"
	"github.com/go-api-auth/internal/application/verification"
	"github.com/go-api-auth/internal/config"
	"github.com/go-api-auth/internal/metrics"
	"github.com/go-api-auth/internal/transport/http/handler"
	appmiddleware "github.com/go-api-auth/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Deps holds the services and probes the router exposes.
type Deps struct {
	Verification verification.Service
	Registration registration.Service
	Sessions     session.Service
	Health       map[string]handler.Pinger
	Metrics      *metrics.Metrics // nil disables /metrics
}

// NewRouter builds and returns the application router.
// ctx bounds the rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	if cfg.TrustProxy {
		// Only behind a proxy that overwrites the forwarding headers.
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(appmiddleware.Metrics(deps.Metrics))

	// 5 requests/second, burst of 10, on endpoints that guess at codes or passwords.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	cookie := handler.CookieOptions{Secure: cfg.CookieSecure, MaxAge: cfg.RefreshTokenTTL}
	healthH := handler.NewHealthHandler(deps.Health)
	verifyH := handler.NewVerificationHandler(deps.Verification, deps.Metrics)
	registerH := handler.NewRegistrationHandler(deps.Registration, deps.Metrics)
	sessionH := handler.NewSessionHandler(deps.Sessions, cookie, deps.Metrics)

	r.Get("/health", healthH.Check)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/code", verifyH.IssueCode)
			r.Post("/verify", verifyH.Verify)
			r.Post("/register", registerH.Register)
			r.Post("/login", sessionH.Login)
		})
		r.Post("/refresh", sessionH.Refresh)
		r.Post("/logout", sessionH.Logout)

		r.With(appmiddleware.Auth(deps.Sessions)).Get("/me", sessionH.Me)
	})

	return r
}
