package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables that override settings.
const (
	EnvShell          = "DAMA_SHELL"
	EnvLogLevel       = "DAMA_LOG_LEVEL"
	EnvCommandTimeout = "DAMA_COMMAND_TIMEOUT"
	EnvWatchDebounce  = "DAMA_WATCH_DEBOUNCE"
	EnvWatchRecursive = "DAMA_WATCH_RECURSIVE"
	EnvMetricsFile    = "DAMA_METRICS_FILE"
)

var envKeys = []struct {
	name string
	key  string
}{
	{name: EnvShell, key: "runner.shell"},
	{name: EnvLogLevel, key: "log.level"},
	{name: EnvCommandTimeout, key: "runner.command-timeout"},
	{name: EnvWatchDebounce, key: "watch.debounce"},
	{name: EnvWatchRecursive, key: "watch.recursive"},
	{name: EnvMetricsFile, key: "metrics.file"},
}

// EnvOverrides collects settings overrides from the environment through
// lookup, normally os.LookupEnv.
func EnvOverrides(lookup func(string) (string, bool)) (map[string]any, error) {
	overrides := map[string]any{}
	for _, entry := range envKeys {
		raw, ok := lookup(entry.name)
		if !ok {
			continue
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if entry.name == EnvWatchRecursive {
			parsed, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", entry.name, err)
			}
			overrides[entry.key] = parsed
			continue
		}
		overrides[entry.key] = raw
	}
	return overrides, nil
}
