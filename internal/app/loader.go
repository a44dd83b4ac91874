package app

import (
	"dama/internal/config"
	"dama/internal/logging"
)

// LoadPanel reads and validates a panel file, tagging failures with
// StageLoadPanel.
func LoadPanel(logger *logging.Logger, path string) (config.Panel, error) {
	panel, err := config.Load(path)
	if err != nil {
		return config.Panel{}, BuildError{Stage: StageLoadPanel, Err: err}
	}
	if logger != nil {
		logger.Component("app").Info("panel loaded", map[string]string{
			"path":  path,
			"title": panel.Title,
		})
	}
	return panel, nil
}
