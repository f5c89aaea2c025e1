package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appHandler "healthfund/internal/application/handler"
	certHandler "healthfund/internal/certification/handler"
	detailHandler "healthfund/internal/detail/handler"
	identityHandler "healthfund/internal/identity/handler"
	memberHandler "healthfund/internal/membership/handler"
	"healthfund/internal/platform/config"
	"healthfund/internal/platform/middleware"
	reviewHandler "healthfund/internal/review/handler"
	"healthfund/pkg/platform/httputil"
	"healthfund/pkg/platform/middleware/metadata"
	"healthfund/pkg/platform/middleware/requesttime"
)

func newRouter(cfg config.Server, log *slog.Logger, in *infra, svcs services) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(svcs.metrics))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", healthHandler(in))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Caller(log))

		identityHandler.New(svcs.identity, log).Register(r)
		appHandler.New(svcs.applications, log).Register(r)
		certHandler.New(svcs.certification, log).Register(r)
		reviewHandler.New(svcs.review, log).Register(r)
		memberHandler.New(svcs.membership, log).Register(r)
		detailHandler.New(svcs.detail, log).Register(r)
	})
	return r
}

type healthResponse struct {
	Status  string            `json:"status"`
	Storage string            `json:"storage"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// healthHandler pings every configured backend. Kafka is left out because
// event publishing is best effort.
func healthHandler(in *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{}
		healthy := true
		record := func(name string, check func(context.Context) error) {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if in.db != nil {
			record("postgres", in.db.PingContext)
		}
		if in.redis != nil {
			record("redis", in.redis.Health)
		}

		resp := healthResponse{Status: "ok", Storage: in.engine(), Checks: checks}
		status := http.StatusOK
		if !healthy {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
