package controllers

import (
	"context"
	"net/http"

	"github.com/retailgrid/backoffice/api/responses"
	"github.com/retailgrid/backoffice/pkg/config"
	"github.com/retailgrid/backoffice/pkg/logger"
)

// Pinger is the health-check surface of pkg/db and pkg/redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the database and cache before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Backoffice-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}
		healthy := true

		if db == nil {
			checks["db"] = "not configured"
			healthy = false
		} else if err := db.Ping(r.Context()); err != nil {
			checks["db"] = err.Error()
			healthy = false
		}

		if cache == nil {
			checks["redis"] = "not configured"
		} else if err := cache.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		if !healthy {
			if logg != nil {
				logg.Warn(r.Context(), "readiness check failed")
			}
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, checks)
			return
		}
		responses.WriteSuccess(w, checks)
	}
}
