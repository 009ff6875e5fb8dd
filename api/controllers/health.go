package controllers

import (
	"context"
	"net/http"

	"github.com/neiist-dev/shop-backend/api/responses"
	"github.com/neiist-dev/shop-backend/pkg/config"
	"github.com/neiist-dev/shop-backend/pkg/db"
	pkgerrors "github.com/neiist-dev/shop-backend/pkg/errors"
	"github.com/neiist-dev/shop-backend/pkg/logger"
	"github.com/neiist-dev/shop-backend/pkg/redis"
)

const envHeader = "X-Shop-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. Redis is optional; a nil pinger is
// reported as disabled rather than failing readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		components := map[string]string{}

		if err := pingComponent(r.Context(), dbP); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready").WithDetails(map[string]any{"component": "database"}))
			return
		}
		components["database"] = "ok"

		if redisP == nil {
			components["redis"] = "disabled"
		} else if err := redisP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready").WithDetails(map[string]any{"component": "redis"}))
			return
		} else {
			components["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{
			"status":     "ready",
			"components": components,
		})
	}
}

func pingComponent(ctx context.Context, p db.Pinger) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "database pinger not wired")
	}
	return p.Ping(ctx)
}
