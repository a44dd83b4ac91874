// Package tomlkeys flattens TOML documents into dotted, normalized keys so
// table and dotted-key spellings of the same setting compare equal.
package tomlkeys

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Values maps normalized dotted keys to decoded TOML values.
type Values map[string]any

// NormalizeKey lowercases key and spells underscores as hyphens, so
// "Runner.COMMAND_TIMEOUT" and "runner.command-timeout" name one setting.
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}

func Decode(data []byte) (Values, error) {
	var document map[string]any
	if _, err := toml.Decode(string(data), &document); err != nil {
		return nil, err
	}
	values := Values{}
	values.flatten("", document)
	return values, nil
}

// flatten copies table into v under prefix. When two spellings normalize to
// the same key the first in sorted order wins, so decoding is deterministic.
func (v Values) flatten(prefix string, table map[string]any) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if nested, ok := table[name].(map[string]any); ok {
			v.flatten(key, nested)
			continue
		}
		normalized := NormalizeKey(key)
		if _, taken := v[normalized]; !taken {
			v[normalized] = table[name]
		}
	}
}

func (v Values) Clone() Values {
	clone := make(Values, len(v))
	for key, value := range v {
		clone[key] = value
	}
	return clone
}

// Overlay copies every value of upper into v, replacing what was there.
func (v Values) Overlay(upper Values) {
	for key, value := range upper {
		v[key] = value
	}
}

// Set stores value under the normalized key. Blank keys are ignored.
func (v Values) Set(key string, value any) {
	if normalized := NormalizeKey(key); normalized != "" {
		v[normalized] = value
	}
}

func (v Values) Lookup(key string) (any, bool) {
	value, ok := v[NormalizeKey(key)]
	return value, ok
}

func (v Values) Bool(key string) (bool, bool) {
	value, _ := v.Lookup(key)
	typed, ok := value.(bool)
	return typed, ok
}

// String returns the value trimmed of surrounding space.
func (v Values) String(key string) (string, bool) {
	value, _ := v.Lookup(key)
	typed, ok := value.(string)
	return strings.TrimSpace(typed), ok
}

// Int accepts TOML integers and floats without a fraction.
func (v Values) Int(key string) (int64, bool) {
	value, _ := v.Lookup(key)
	return integer(value)
}

// Duration accepts a Go duration string or an integer number of
// milliseconds. A missing or blank value reports found=false.
func (v Values) Duration(key string) (duration time.Duration, found bool, err error) {
	value, ok := v.Lookup(key)
	if !ok {
		return 0, false, nil
	}
	switch typed := value.(type) {
	case time.Duration:
		return typed, true, nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false, nil
		}
		parsed, err := time.ParseDuration(trimmed)
		if err != nil {
			return 0, true, fmt.Errorf("setting %s: %w", NormalizeKey(key), err)
		}
		return parsed, true, nil
	}
	if millis, ok := integer(value); ok {
		return time.Duration(millis) * time.Millisecond, true, nil
	}
	return 0, true, fmt.Errorf("setting %s: unsupported value %v", NormalizeKey(key), value)
}

// Keys returns the normalized keys in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func integer(value any) (int64, bool) {
	switch typed := value.(type) {
	case int64:
		return typed, true
	case int:
		return int64(typed), true
	case float64:
		if typed == float64(int64(typed)) {
			return int64(typed), true
		}
	}
	return 0, false
}
