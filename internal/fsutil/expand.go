package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands environment variables and a leading "~" in pathValue
// and cleans the result. Relative paths stay relative to the working
// directory. An empty value stays empty.
func ExpandPath(pathValue string) string {
	trimmed := strings.TrimSpace(pathValue)
	if trimmed == "" {
		return ""
	}
	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			expanded = filepath.Join(home, expanded[1:])
		}
	}
	return filepath.Clean(expanded)
}
