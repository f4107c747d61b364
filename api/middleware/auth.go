package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicalrxq/member-portal/api/responses"
	"github.com/clinicalrxq/member-portal/api/validators"
	pkgAuth "github.com/clinicalrxq/member-portal/pkg/auth"
	"github.com/clinicalrxq/member-portal/pkg/auth/session"
	"github.com/clinicalrxq/member-portal/pkg/config"
	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
	"github.com/clinicalrxq/member-portal/pkg/logger"
)

// Auth admits requests whose bearer token verifies and whose session has not
// been revoked. A nil verifier skips the revocation check.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(r.Context(), cfg, verifier, r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logg.WithMemberID(ctx, claims.MemberID)
			ctx = logg.WithField(ctx, "session_id", claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, verifier session.AccessSessionChecker, r *http.Request) (*pkgAuth.AccessTokenClaims, error) {
	token, err := validators.BearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}

	if verifier == nil {
		return claims, nil
	}
	ok, err := verifier.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked")
	}
	return claims, nil
}
