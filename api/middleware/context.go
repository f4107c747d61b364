package middleware

import (
	"context"

	pkgAuth "github.com/clinicalrxq/member-portal/pkg/auth"
)

type contextKey string

const ctxClaims contextKey = "member_claims"

// ClaimsFromContext returns the verified access token claims, if any.
func ClaimsFromContext(ctx context.Context) *pkgAuth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	claims, _ := ctx.Value(ctxClaims).(*pkgAuth.AccessTokenClaims)
	return claims
}

// MemberIDFromContext returns the authenticated member id or "".
func MemberIDFromContext(ctx context.Context) string {
	if claims := ClaimsFromContext(ctx); claims != nil {
		return claims.MemberID
	}
	return ""
}

// WithClaims injects verified claims into the context.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
