package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saurabh8101998/HMS/internal/observability/metrics"
	"github.com/saurabh8101998/HMS/internal/schedule"
)

type RouterConfig struct {
	Service *schedule.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", listProvidersHandler(cfg.Service))
		r.Get("/{id}", getProviderHandler(cfg.Service))
		r.Get("/{id}/slots", listProviderSlotsHandler(cfg.Service))
		r.Get("/{id}/appointments/active", activeAppointmentHandler(cfg.Service))
		r.Put("/{id}/slots", replaceSlotsHandler(cfg.Service))
		r.Post("/{id}/schedule/preview", previewScheduleHandler(cfg.Service))
		r.Post("/{id}/schedule/commit", commitScheduleHandler(cfg.Service))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", bookAppointmentHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/{id}/complete", completeAppointmentHandler(cfg.Service))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", listNotificationsHandler(cfg.Service))
		r.Post("/{id}/read", markNotificationReadHandler(cfg.Service))
	})

	return r
}
