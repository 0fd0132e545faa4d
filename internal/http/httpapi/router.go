package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidabot/internal/http/handlers"
	"vidabot/internal/infra"
	"vidabot/internal/middleware"
)

// RouterOptions configures the bridge middleware chain.
type RouterOptions struct {
	Logger          infra.Logger
	CORSOrigins     []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)
	r.NotFound(app.NotFound)
	r.MethodNotAllowed(app.MethodNotAllowed)

	r.Get("/health", app.Health)
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats", app.Stats)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/generate-video", app.GenerateVideo)
		r.Post("/test-api-key", app.TestAPIKey)
		r.Post("/test-video-access", app.TestVideoAccess)
	})

	return r
}
