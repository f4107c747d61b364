package controllers

import (
	"net/http"

	"github.com/clinicalrxq/member-portal/api/middleware"
	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/internal/auth"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

// Me returns the member profile carried by the verified access token.
func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		responses.WriteSuccess(w, auth.AuthUser{
			ID:                 claims.MemberID,
			Email:              claims.Email,
			FirstName:          nonEmpty(claims.FirstName),
			LastName:           nonEmpty(claims.LastName),
			PharmacyName:       nonEmpty(claims.PharmacyName),
			SubscriptionStatus: nonEmpty(claims.SubscriptionStatus),
		})
	}
}

func nonEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
