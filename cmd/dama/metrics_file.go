package main

import (
	"strings"

	"dama/internal/metrics"
)

// writeMetricsFile replaces path with the registry's counters. An empty path
// writes nothing.
func writeMetricsFile(path string, registry *metrics.Registry) error {
	if strings.TrimSpace(path) == "" || registry == nil {
		return nil
	}
	return registry.WriteTextfile(path)
}
