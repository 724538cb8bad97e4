package httpapi

import (
	"net/http"
	"time"

	"github.com/hardingCheng/waoowaoo/internal/http/handlers"
	"github.com/hardingCheng/waoowaoo/internal/infra"
	"github.com/hardingCheng/waoowaoo/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.CORS(cfg.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/generations", app.VideosGenerate)
		r.Get("/generations/{external_id}", app.VideoStatus)
	})

	r.Post("/v1/text/steps", app.StepsExecute)

	return r
}
