package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/clinicalrxq/member-portal/pkg/errors"
)

// BearerToken extracts the token from an Authorization header. The scheme prefix is optional.
func BearerToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
