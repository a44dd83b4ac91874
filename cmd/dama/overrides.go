package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dama"
	"dama/internal/config"
	"dama/internal/config/tomlkeys"
)

// runFlags holds the flags of the run command. Only flags the user set
// explicitly override settings.
type runFlags struct {
	settingsPath   string
	headless       bool
	overrides      []string
	logLevel       string
	shell          string
	commandTimeout time.Duration
	debounce       time.Duration
	metricsFile    string
}

func (flags *runFlags) register(cmd *cobra.Command) {
	set := cmd.Flags()
	set.StringVar(&flags.settingsPath, "settings", "", "settings file (TOML)")
	set.BoolVar(&flags.headless, "headless", false, "run without the terminal renderer, reading commands from stdin")
	set.StringArrayVar(&flags.overrides, "set", nil, "override a setting as key=value (repeatable)")
	set.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warning, error")
	set.StringVar(&flags.shell, "shell", "", "shell used to run commands")
	set.DurationVar(&flags.commandTimeout, "command-timeout", 0, "bound on each command, 0 for none")
	set.DurationVar(&flags.debounce, "watch-debounce", 0, "quiet period before a file change is delivered")
	set.StringVar(&flags.metricsFile, "metrics-file", "", "write counters in Prometheus text format here on exit")
}

// settings resolves defaults, the settings file, the environment, --set
// entries and explicit flags, in increasing precedence.
func (flags *runFlags) settings(cmd *cobra.Command, lookup func(string) (string, bool)) (config.Settings, error) {
	overrides, err := config.EnvOverrides(lookup)
	if err != nil {
		return config.Settings{}, err
	}
	entries, err := parseSettingOverrides(flags.overrides)
	if err != nil {
		return config.Settings{}, usageError{err: err}
	}
	for key, value := range entries {
		overrides[key] = value
	}

	changed := cmd.Flags().Changed
	if changed("log-level") {
		overrides["log.level"] = flags.logLevel
	}
	if changed("shell") {
		overrides["runner.shell"] = flags.shell
	}
	if changed("command-timeout") {
		overrides["runner.command-timeout"] = flags.commandTimeout.String()
	}
	if changed("watch-debounce") {
		overrides["watch.debounce"] = flags.debounce.String()
	}
	if changed("metrics-file") {
		overrides["metrics.file"] = flags.metricsFile
	}
	return config.LoadSettings(flags.settingsPath, dama.DefaultSettings, overrides)
}

func parseSettingOverrides(entries []string) (map[string]any, error) {
	overrides := make(map[string]any)
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			return nil, fmt.Errorf("setting override cannot be empty")
		}
		key, raw, found := strings.Cut(trimmed, "=")
		if !found {
			return nil, fmt.Errorf("setting override must be key=value: %q", entry)
		}
		normalizedKey := tomlkeys.NormalizeKey(strings.TrimSpace(key))
		if normalizedKey == "" {
			return nil, fmt.Errorf("setting override key cannot be empty")
		}
		overrides[normalizedKey] = parseOverrideValue(strings.TrimSpace(raw))
	}
	return overrides, nil
}

func parseOverrideValue(value string) any {
	if strings.EqualFold(value, "true") {
		return true
	}
	if strings.EqualFold(value, "false") {
		return false
	}
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
		return parsed
	}
	return value
}
