package controllers

import (
	"context"
	"net/http"

	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/pkg/config"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

const envHeader = "X-Portal-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the shared state store when one is configured.
func HealthReady(cfg *config.Config, logg *logger.Logger, state pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		checks := map[string]string{"state_store": "in_process"}
		if state != nil {
			if err := state.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "state store unavailable"))
				return
			}
			checks["state_store"] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
