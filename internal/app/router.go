package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/karsa-mfg/karsa/internal/orders"
	"github.com/karsa-mfg/karsa/internal/platform/httpx"
	"github.com/karsa-mfg/karsa/internal/refunds"
	"github.com/karsa-mfg/karsa/internal/vendors"
	"github.com/karsa-mfg/karsa/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	OrdersHandler  *orders.Handler
	RefundsHandler *refunds.Handler
	VendorsHandler *vendors.Handler
	JobsHandler    *jobs.Handler
	Pool           *pgxpool.Pool
	Redis          *redis.Client
}

// NewRouter constructs the chi.Router with Karsa defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params))

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(TenantMiddleware(params.Logger))
		api.Route("/orders", params.OrdersHandler.MountRoutes)
		api.Route("/refunds", params.RefundsHandler.MountRoutes)
		api.Route("/vendors", params.VendorsHandler.MountRoutes)
	})

	return r
}

// healthHandler pings postgres and redis concurrently. A failed ping
// surfaces as 503 so load balancers can rotate the instance out.
func healthHandler(params RouterParams) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, ctx := errgroup.WithContext(r.Context())
		if params.Pool != nil {
			g.Go(func() error { return params.Pool.Ping(ctx) })
		}
		if params.Redis != nil {
			g.Go(func() error { return params.Redis.Ping(ctx).Err() })
		}
		if err := g.Wait(); err != nil {
			params.Logger.Error("health check failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "dependency health check failed")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
