package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/josh-kwaku/instructor-payouts/internal/domain"
	"github.com/josh-kwaku/instructor-payouts/internal/handler"
	"github.com/josh-kwaku/instructor-payouts/internal/middleware"
	"github.com/josh-kwaku/instructor-payouts/internal/repository"
)

type handlers struct {
	health     *handler.HealthHandler
	auth       *handler.AuthHandler
	payouts    *handler.PayoutHandler
	balances   *handler.BalanceHandler
	settlement *handler.SettlementHandler
	analytics  *handler.AnalyticsHandler
	reconcile  *handler.ReconcileHandler
}

type routerConfig struct {
	jwtSecret      string
	allowedOrigins []string
	idempotency    *repository.IdempotencyRepository
}

func newRouter(h handlers, cfg routerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Tracing)
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "X-Idempotent-Replayed"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.health.Liveness)
	r.Get("/health/ready", h.health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.jwtSecret))

			instructorOnly := middleware.RequireRole(domain.RoleInstructor)
			adminOnly := middleware.RequireRole(domain.RoleAdmin)
			instructorOrAdmin := middleware.RequireRole(domain.RoleInstructor, domain.RoleAdmin)

			r.Route("/payouts", func(r chi.Router) {
				r.With(instructorOnly, middleware.Idempotency(cfg.idempotency)).Post("/", h.payouts.Request)
				r.With(instructorOrAdmin).Get("/instructor/total-balance", h.balances.InstructorTotal)
				r.With(instructorOnly).Get("/instructor/my-payouts", h.payouts.MyPayouts)
				r.With(instructorOrAdmin).Get("/course/{courseId}/balance", h.balances.Course)
				r.With(instructorOrAdmin).Get("/{id}", h.payouts.Get)
				r.With(adminOnly).Put("/{id}/status", h.payouts.UpdateStatus)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/checkout", h.settlement.Checkout)
				r.Post("/settle", h.settlement.Settle)
				r.Post("/{id}/fail", h.settlement.Fail)
				r.Post("/{id}/refund", h.settlement.Refund)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.With(instructorOnly).Get("/instructor", h.analytics.Instructor)
				r.With(instructorOrAdmin).Get("/course/{courseId}", h.analytics.Course)
				r.With(adminOnly).Get("/platform", h.analytics.Platform)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/payouts", h.payouts.Queue)
				r.Post("/reconcile", h.reconcile.Run)
			})
		})
	})

	return r
}
