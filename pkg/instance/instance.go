package instance

import (
	"os"

	"github.com/angelmondragon/churchhub-backend/pkg/env"
)

const defaultID = "churchhub-0"

// ID names this process in lock owners and log lines. An explicit
// CHURCHHUB_INSTANCE_ID wins over the hostname.
func ID() string {
	if id := env.First("", "CHURCHHUB_INSTANCE_ID", "K_REVISION"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
