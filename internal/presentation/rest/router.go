package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Prospeerous/End-to-End-Churn-Prediction-Deployment/pkg/auth"
)

// RouterConfig holds everything the HTTP surface is built from. Limiter and
// JWT are optional; nil disables rate limiting and authentication. When JWT
// is set, form submissions need a token with the predict scope as well.
type RouterConfig struct {
	Predictions *PredictionHandler
	Form        *FormHandler
	Health      *HealthHandler
	Metrics     http.Handler
	Limiter     *ClientRateLimiter
	JWT         *auth.JWTService
	Logger      *slog.Logger
}

// NewRouter builds the service's HTTP handler with its middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	cfg.Predictions.RegisterRoutes(mux)
	if cfg.Form != nil {
		cfg.Form.jwt = cfg.JWT
		cfg.Form.RegisterRoutes(mux)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	mws := []Middleware{
		RecoveryMiddleware(cfg.Logger),
		LoggingMiddleware(cfg.Logger),
	}
	if cfg.Limiter != nil {
		mws = append(mws, RateLimitMiddleware(cfg.Limiter))
	}
	if cfg.JWT != nil {
		mws = append(mws, auth.HTTPMiddleware(cfg.JWT, RequiredScope))
	}

	return otelhttp.NewHandler(Chain(mux, mws...), "churnd",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/healthz" && r.URL.Path != "/readyz" && r.URL.Path != "/metrics"
		}),
	)
}

// RequiredScope maps a request to the scope the bearer middleware enforces.
// It covers the JSON API only. Probes, metrics and the form page are public,
// and the form authenticates its own submissions (see FormHandler.Submit).
func RequiredScope(r *http.Request) (string, bool) {
	if !strings.HasPrefix(r.URL.Path, "/api/v1/") {
		return "", false
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/v1/predictions" {
		return auth.ScopePredict, true
	}
	return auth.ScopeRead, true
}
