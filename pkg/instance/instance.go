package instance

import (
	"os"

	"github.com/clinicalrxq/member-portal/pkg/env"
)

// ID identifies this process in logs: PORTAL_INSTANCE_ID, then the platform DYNO name, then the hostname.
func ID() string {
	if id, ok := env.First("PORTAL_INSTANCE_ID", "DYNO"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
