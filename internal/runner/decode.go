package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dama/internal/logging"
)

// ValueEnv names the environment entry that carries the value the user just
// set into an on-update or on-click command.
const ValueEnv = "DAMA_VAL"

// Scalar is the closed set of control value types.
type Scalar interface {
	bool | float64 | string
}

// Lines runs command and returns its non-empty output lines.
func Lines(ctx context.Context, r Runner, command string) ([]string, error) {
	result, err := r.Run(ctx, command)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Read runs command and parses its trimmed output as T.
func Read[T Scalar](ctx context.Context, r Runner, command string) (T, error) {
	var zero T
	result, err := r.Run(ctx, command)
	if err != nil {
		return zero, err
	}
	return Parse[T](result.Stdout)
}

// ReadOr is Read with a fallback. Execution and parse failures are logged and
// yield fallback; a missing command yields fallback silently.
func ReadOr[T Scalar](ctx context.Context, r Runner, command string, fallback T, logger *logging.Logger) T {
	value, err := Read[T](ctx, r, command)
	if err == nil {
		return value
	}
	if !errors.Is(err, ErrNoCommand) && logger != nil {
		logger.Warn("command value unavailable, using default", map[string]string{
			"command":          command,
			"default":          Format(fallback),
			logging.FieldError: err.Error(),
		})
	}
	return fallback
}

// ParseError reports command output that does not decode as the wanted type.
type ParseError struct {
	Output string
	Type   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q as %s: %v", e.Output, e.Type, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes trimmed command output as T.
func Parse[T Scalar](output string) (T, error) {
	var zero T
	trimmed := strings.TrimSpace(output)
	switch any(zero).(type) {
	case bool:
		// Only the spellings Format produces; "1" or "TRUE" fall back to the
		// default like any other unparsable output.
		switch trimmed {
		case "true":
			return any(true).(T), nil
		case "false":
			return any(false).(T), nil
		}
		return zero, &ParseError{Output: trimmed, Type: "bool", Err: strconv.ErrSyntax}
	case float64:
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return zero, &ParseError{Output: trimmed, Type: "number", Err: err}
		}
		if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return zero, &ParseError{Output: trimmed, Type: "number", Err: strconv.ErrRange}
		}
		return any(parsed).(T), nil
	case string:
		return any(trimmed).(T), nil
	default:
		return zero, &ParseError{Output: trimmed, Type: fmt.Sprintf("%T", zero), Err: errors.ErrUnsupported}
	}
}

// Format renders a value the way commands receive it in ValueEnv: booleans as
// true/false, numbers floored to an integer, text unchanged.
func Format[T Scalar](value T) string {
	switch v := any(value).(type) {
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(math.Floor(v), 'f', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprint(value)
	}
}

// ValueEntry returns the environment entry carrying value.
func ValueEntry[T Scalar](value T) string {
	return ValueEnv + "=" + Format(value)
}
