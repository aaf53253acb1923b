package controllers

import (
	"context"
	"net/http"

	"github.com/hananlabs/wishpos-backend/api/responses"
	"github.com/hananlabs/wishpos-backend/pkg/config"
	pkgerrors "github.com/hananlabs/wishpos-backend/pkg/errors"
	"github.com/hananlabs/wishpos-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WishPOS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// ReadyCheck probes one backing dependency by name.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-WishPOS-Env", cfg.App.Env)

		deps := map[string]string{}
		for _, check := range checks {
			if check.Check == nil {
				continue
			}
			if err := check.Check(r.Context()); err != nil {
				deps[check.Name] = "unreachable"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name+" unavailable").WithDetails(deps))
				return
			}
			deps[check.Name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "dependencies": deps})
	}
}
