package controllers

import (
	"context"
	"net/http"

	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/api/validators"
	"github.com/clinicalrxq/member-portal/pkg/airtable"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

type storeProber interface {
	Probe(ctx context.Context) airtable.ProbeResult
}

type runtimeSettings interface {
	Status(ctx context.Context) airtable.RuntimeStatus
	SetBaseID(ctx context.Context, baseID string) error
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type metadataInvalidator interface {
	Invalidate(ctx context.Context) error
}

// backendConfigRequest updates runtime settings. Nil fields are left untouched and
// blank values clear the persisted override.
type backendConfigRequest struct {
	BaseID *string `json:"base_id" validate:"omitempty,max=64"`
	Token  *string `json:"token" validate:"omitempty,max=512"`
}

// BackendStatus reports store connectivity. It always answers 200 with the verdict in the body.
func BackendStatus(prober storeProber, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := prober.Probe(r.Context())
		if result.State == airtable.ProbeError {
			logg.Warn(logg.WithFields(r.Context(), map[string]any{"base_id": result.BaseID, "probe_message": result.Message}), "backend.probe.failed")
		}
		responses.WriteSuccess(w, result)
	}
}

// BackendConfigGet shows the active base and whether a token is configured.
func BackendConfigGet(settings runtimeSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, settings.Status(r.Context()))
	}
}

// BackendConfigPut persists runtime overrides. A token change drops cached metadata;
// a base change is detected by the cache itself.
func BackendConfigPut(settings runtimeSettings, cache metadataInvalidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body backendConfigRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.BaseID == nil && body.Token == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "base_id or token is required"))
			return
		}

		ctx := r.Context()
		if body.BaseID != nil {
			if err := settings.SetBaseID(ctx, *body.BaseID); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist base id"))
				return
			}
		}
		if body.Token != nil {
			if err := settings.SetToken(ctx, *body.Token); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist token"))
				return
			}
			invalidate(ctx, cache, logg)
		}

		status := settings.Status(ctx)
		logg.Info(logg.WithBaseID(ctx, status.BaseID), "backend.config.updated")
		responses.WriteSuccess(w, status)
	}
}

// BackendConfigDelete clears the runtime overrides, falling back to injected values.
func BackendConfigDelete(settings runtimeSettings, cache metadataInvalidator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := settings.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear runtime config"))
			return
		}
		invalidate(ctx, cache, logg)
		responses.WriteSuccess(w, settings.Status(ctx))
	}
}

func invalidate(ctx context.Context, cache metadataInvalidator, logg *logger.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logg.WarnErr(ctx, "backend.config.invalidate_failed", err)
	}
}
