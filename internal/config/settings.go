package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dama/internal/config/tomlkeys"
)

type Settings struct {
	Runner  RunnerSettings
	Watch   WatchSettings
	Log     LogSettings
	Metrics MetricsSettings
}

type RunnerSettings struct {
	Shell          string
	CommandTimeout time.Duration
}

type WatchSettings struct {
	Debounce   time.Duration
	Recursive  bool
	MaxWatches int64
}

type LogSettings struct {
	Level      string
	BufferSize int64
}

type MetricsSettings struct {
	File string
}

// LoadSettings overlays the settings file at path (optional; a missing file
// is ignored) and then overrides onto defaultsPayload. Override keys use the
// same dotted names as the file, such as "watch.debounce".
func LoadSettings(path string, defaultsPayload []byte, overrides map[string]any) (Settings, error) {
	defaults, err := tomlkeys.Decode(defaultsPayload)
	if err != nil {
		return Settings{}, fmt.Errorf("decode default settings: %w", err)
	}
	values := defaults.Clone()

	if strings.TrimSpace(path) != "" {
		payload, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Settings{}, err
		default:
			file, err := tomlkeys.Decode(payload)
			if err != nil {
				return Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
			}
			values.Overlay(file)
		}
	}
	for key, value := range overrides {
		values.Set(key, value)
	}

	var settings Settings
	settings.Runner.Shell = stringOr(values, "runner.shell", stringOr(defaults, "runner.shell", "sh"))
	settings.Watch.Recursive = boolOr(values, "watch.recursive", boolOr(defaults, "watch.recursive", true))
	settings.Watch.MaxWatches = positiveOr(values, "watch.max-watches", positiveOr(defaults, "watch.max-watches", 0))
	settings.Log.Level = stringOr(values, "log.level", stringOr(defaults, "log.level", "info"))
	settings.Log.BufferSize = positiveOr(values, "log.buffer-size", positiveOr(defaults, "log.buffer-size", 0))
	settings.Metrics.File, _ = values.String("metrics.file")

	if settings.Runner.CommandTimeout, _, err = values.Duration("runner.command-timeout"); err != nil {
		return Settings{}, err
	}
	if settings.Watch.Debounce, _, err = values.Duration("watch.debounce"); err != nil {
		return Settings{}, err
	}
	settings.Runner.CommandTimeout = max(settings.Runner.CommandTimeout, 0)
	settings.Watch.Debounce = max(settings.Watch.Debounce, 0)
	return settings, nil
}

// stringOr returns the value for key, or fallback when it is missing, not a
// string, or blank.
func stringOr(values tomlkeys.Values, key, fallback string) string {
	if value, ok := values.String(key); ok && value != "" {
		return value
	}
	return fallback
}

func boolOr(values tomlkeys.Values, key string, fallback bool) bool {
	if value, ok := values.Bool(key); ok {
		return value
	}
	return fallback
}

func positiveOr(values tomlkeys.Values, key string, fallback int64) int64 {
	if value, ok := values.Int(key); ok && value > 0 {
		return value
	}
	return fallback
}
