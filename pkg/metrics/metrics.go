// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

const namespace = "churchhub"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
