package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/artfolio/engagement-service/internal/config"
	"github.com/artfolio/engagement-service/internal/metrics"
	"github.com/artfolio/engagement-service/internal/transport/http/handlers"
	appmw "github.com/artfolio/engagement-service/internal/transport/http/middleware"
)

func New(
	eng *handlers.EngagementsHandler,
	guest *handlers.GuestHandler,
	internal *handlers.InternalHandler,
	health *handlers.HealthHandler,
	auth *appmw.AuthMiddleware,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	r.Use(appmw.RequestID)
	r.Use(appmw.SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(appmw.AccessLog)
	r.Use(appmw.Metrics)

	if cfg.RLEnabled {
		r.Use(httprate.LimitByIP(cfg.RLLimit, cfg.RLWindow))
	}

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/engagement/v1", func(r chi.Router) {
		r.Use(appmw.DeviceID(cfg.DeviceCookieSecret, cfg.DeviceCookieTTL, cfg.AppEnv != "dev"))
		r.Use(appmw.RequireDevice)
		if cfg.JWTSecret != "" {
			r.Use(auth.Identity)
		}

		r.Get("/guest/{kind}", guest.Get)
		r.Post("/guest/{kind}", guest.Act)

		r.Post("/engagements", eng.Start)
		r.Patch("/engagements", eng.Heartbeat)
		r.Get("/engagements", eng.List)
		r.Delete("/engagements", eng.Clear)
		r.Get("/engagements/{artwork_id}", eng.Get)

		r.Get("/recent-views", eng.RecentViews)
	})

	r.Route("/internal/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(appmw.InternalAuth(cfg.InternalSecret))
			r.Post("/migrate", internal.Migrate)
		})
		// the cron trigger authenticates with a query-parameter secret
		r.Post("/notifications/dispatch", internal.Dispatch)
	})

	return r
}
