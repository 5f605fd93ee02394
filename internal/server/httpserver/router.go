// Package httpserver provides the HTTP/HTTPS API server for CacheMesh.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/cachemesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/cachemesh-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Policy serves topology reads and cache joins.
	Policy handler.PolicyAPI

	// Confirmer receives rebalance confirmations.
	Confirmer handler.Confirmer

	// Members lists the cluster member view; optional.
	Members handler.MemberLister

	// Metrics registry; its handler is mounted at /metrics.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimit is the per-client request budget (requests/second);
	// 0 disables rate limiting.
	RateLimit int
}

// NewRouter creates and configures the HTTP router with all routes and
// middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	h := handler.New(cfg.Policy, cfg.Confirmer, cfg.Members, cfg.Logger)

	mux := http.NewServeMux()
	mux.Handle("/", h)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Order: Recover -> RequestID -> RateLimit -> Logging -> Handler
	middlewares := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
	}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	middlewares = append(middlewares, Logging(cfg.Logger, cfg.Metrics))

	return Chain(mux, middlewares...)
}
