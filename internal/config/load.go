package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

var ErrUnknownFormat = errors.New("unknown panel format")

// FormatFor picks the decoder from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads, decodes and validates the panel file at path.
func Load(path string) (Panel, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Panel{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Panel{}, err
	}
	panel, err := Decode(data, format)
	if err != nil {
		return Panel{}, fmt.Errorf("%s: %w", path, err)
	}
	return panel, nil
}

// Decode decodes and validates a panel. Unknown fields are rejected.
func Decode(data []byte, format Format) (Panel, error) {
	var (
		panel Panel
		err   error
	)
	switch format {
	case FormatYAML:
		panel, err = decodeYAML(data)
	case FormatTOML:
		panel, err = decodeTOML(data)
	default:
		return Panel{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Panel{}, err
	}
	if err := Validate(panel); err != nil {
		return panel, err
	}
	return panel, nil
}

func decodeYAML(data []byte) (Panel, error) {
	var panel Panel
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&panel); err != nil {
		return Panel{}, fmt.Errorf("invalid YAML panel: %w", err)
	}
	return panel, nil
}

func decodeTOML(data []byte) (Panel, error) {
	var panel Panel
	meta, err := toml.Decode(string(data), &panel)
	if err != nil {
		return Panel{}, fmt.Errorf("invalid TOML panel: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return Panel{}, fmt.Errorf("invalid TOML panel: unknown fields %s", strings.Join(keys, ", "))
	}
	return panel, nil
}
