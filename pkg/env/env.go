// Package env reads the few process settings that are needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// First returns the first non-blank value among keys, or fallback when none is set.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
