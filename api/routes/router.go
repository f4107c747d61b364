package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicalrxq/member-portal/api/controllers"
	"github.com/clinicalrxq/member-portal/api/middleware"
	"github.com/clinicalrxq/member-portal/internal/auth"
	"github.com/clinicalrxq/member-portal/internal/resources"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
	"github.com/clinicalrxq/member-portal/pkg/auth/session"
	"github.com/clinicalrxq/member-portal/pkg/config"
	"github.com/clinicalrxq/member-portal/pkg/logger"
	"github.com/clinicalrxq/member-portal/pkg/metrics"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

type rateLimitStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type statePinger interface {
	Ping(context.Context) error
}

type resourceService interface {
	ListAll(ctx context.Context) ([]resources.LibraryResource, error)
	ListByCategory(ctx context.Context, key resources.CategoryKey) ([]resources.LibraryResource, error)
}

type storeProber interface {
	Probe(ctx context.Context) airtable.ProbeResult
}

type runtimeSettings interface {
	Status(ctx context.Context) airtable.RuntimeStatus
	SetBaseID(ctx context.Context, baseID string) error
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type metadataInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewRouter wires the portal API. statePinger may be nil when the in-process store is used.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	state rateLimitStore,
	pinger statePinger,
	sessionManager sessionManager,
	authService auth.Service,
	resourceService resourceService,
	prober storeProber,
	settings runtimeSettings,
	metadata metadataInvalidator,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Metrics(httpMetrics),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pinger))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/backend/status", controllers.BackendStatus(prober, logg))
		r.Get("/backend/config", controllers.BackendConfigGet(settings))
		if cfg.App.IsDev() || cfg.Airtable.DevConfig {
			r.Put("/backend/config", controllers.BackendConfigPut(settings, metadata, logg))
			r.Delete("/backend/config", controllers.BackendConfigDelete(settings, metadata, logg))
		}
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, state, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Get("/ping", controllers.PrivatePing())
		r.Get("/me", controllers.Me(logg))
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", controllers.ResourcesList(resourceService, logg))
			r.Get("/categories/{key}", controllers.ResourcesByCategory(resourceService, logg))
		})
	})

	return r
}
