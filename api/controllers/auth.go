package controllers

import (
	"net/http"

	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/api/validators"
	"github.com/clinicalrxq/member-portal/internal/auth"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

// TokenHeader mirrors the issued access token so clients can read it without parsing the body.
const TokenHeader = "X-Portal-Token"

// AuthLogin verifies member credentials and opens a session.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if result.User != nil {
			logg.Info(logg.WithMemberID(ctx, result.User.ID), "auth.login.succeeded")
		}

		writeTokens(w, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// writeTokens sets the headers shared by login and refresh responses.
func writeTokens(w http.ResponseWriter, accessToken string) {
	w.Header().Set(TokenHeader, accessToken)
	w.Header().Set("Cache-Control", "no-store")
}
