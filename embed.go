package dama

import _ "embed"

// DefaultSettings holds the built-in settings that user settings overlay.
//
//go:embed config/dama.toml
var DefaultSettings []byte
