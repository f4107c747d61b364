package controllers

import (
	"net/http"
	"time"

	"github.com/clinicalrxq/member-portal/api/middleware"
	"github.com/clinicalrxq/member-portal/api/responses"
)

type pingResponse struct {
	Scope      string `json:"scope"`
	Status     string `json:"status"`
	MemberID   string `json:"member_id,omitempty"`
	ServerTime string `json:"server_time"`
}

func ping(scope, memberID string) pingResponse {
	return pingResponse{
		Scope:      scope,
		Status:     "ok",
		MemberID:   memberID,
		ServerTime: time.Now().UTC().Format(time.RFC3339),
	}
}

// PublicPing answers without credentials.
func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ping("public", ""))
	}
}

// PrivatePing echoes the authenticated member so clients can check their token.
func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, ping("private", middleware.MemberIDFromContext(r.Context())))
	}
}
