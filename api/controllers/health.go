package controllers

import (
	"net/http"

	"github.com/emberlane/storefront-backend/api/responses"
	"github.com/emberlane/storefront-backend/pkg/config"
	"github.com/emberlane/storefront-backend/pkg/db"
	pkgerrors "github.com/emberlane/storefront-backend/pkg/errors"
	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the dependencies the request path needs. The cache is
// reported but never fails readiness; reads degrade without it.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		if dbP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"))
			return
		}
		if err := dbP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
			return
		}

		cacheStatus := "ok"
		if redisP == nil {
			cacheStatus = "disabled"
		} else if err := redisP.Ping(r.Context()); err != nil {
			cacheStatus = "degraded"
			if logg != nil {
				logg.Warn(r.Context(), "cache unreachable, serving direct reads")
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready", "cache": cacheStatus})
	}
}
