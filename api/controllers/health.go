package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/bizops-backend/api/responses"
	"github.com/angelmondragon/bizops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bizops-backend/pkg/errors"
	"github.com/angelmondragon/bizops-backend/pkg/logger"
)

const (
	envHeader    = "X-BizOps-Env"
	readyTimeout = 2 * time.Second
)

// Pinger is satisfied by the database and Redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when both the database and Redis answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "ok"}
		var failed *pkgerrors.Error
		for name, dep := range map[string]Pinger{"database": db, "redis": redis} {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				if failed == nil {
					failed = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable")
				}
			}
		}
		if failed != nil {
			responses.WriteError(r.Context(), logg, w, failed.WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
