package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/vendorpool-backend/api/responses"
	"github.com/angelmondragon/vendorpool-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vendorpool-backend/pkg/errors"
	"github.com/angelmondragon/vendorpool-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the database and redis clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VendorPool-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency and reports 503 on the first failure.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VendorPool-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := []struct {
			name   string
			pinger Pinger
		}{
			{name: "database", pinger: db},
			{name: "redis", pinger: cache},
		}
		for _, check := range checks {
			if check.pinger == nil {
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
					WithDetails(map[string]any{"dependency": check.name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
