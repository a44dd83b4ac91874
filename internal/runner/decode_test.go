package runner

import (
	"context"
	"errors"
	"testing"

	"dama/internal/logging"

	"github.com/google/go-cmp/cmp"
)

func TestLinesDropsEmptyLines(t *testing.T) {
	scripted := NewScripted().Echo("list", "hdmi\n\nanalog\r\nbluetooth\n")
	lines, err := Lines(context.Background(), scripted, "list")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if diff := cmp.Diff([]string{"hdmi", "analog", "bluetooth"}, lines); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
}

func TestParseScalars(t *testing.T) {
	if got, err := Parse[bool](" true\n"); err != nil || !got {
		t.Fatalf("expected true, got %v (%v)", got, err)
	}
	if got, err := Parse[float64]("42\n"); err != nil || got != 42 {
		t.Fatalf("expected 42, got %v (%v)", got, err)
	}
	if got, err := Parse[string]("  hdmi  \n"); err != nil || got != "hdmi" {
		t.Fatalf("expected hdmi, got %q (%v)", got, err)
	}

	_, err := Parse[float64]("loud")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if _, err := Parse[float64]("NaN"); err == nil {
		t.Fatal("expected NaN to be rejected")
	}
	if _, err := Parse[bool]("yes please"); err == nil {
		t.Fatal("expected invalid bool to be rejected")
	}
}

func TestParseBoolAcceptsOnlyTrueAndFalse(t *testing.T) {
	tests := []struct {
		output string
		want   bool
		ok     bool
	}{
		{output: "true\n", want: true, ok: true},
		{output: " false ", want: false, ok: true},
		{output: "1"},
		{output: "0"},
		{output: "t"},
		{output: "TRUE"},
		{output: "False"},
	}
	for _, test := range tests {
		got, err := Parse[bool](test.output)
		if test.ok {
			if err != nil || got != test.want {
				t.Fatalf("Parse(%q) = %v, %v; want %v", test.output, got, err, test.want)
			}
			continue
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("Parse(%q) = %v, %v; want ParseError", test.output, got, err)
		}
	}

	scripted := NewScripted().Echo("mute", "1\n")
	if got := ReadOr(context.Background(), scripted, "mute", false, nil); got {
		t.Fatal("expected numeric output to fall back to the default")
	}
}

func TestReadOrFallsBack(t *testing.T) {
	buffer := logging.NewLogBuffer(10)
	logger := logging.NewLoggerWithOutput(buffer, logging.LevelDebug, nil)
	scripted := NewScripted().Fail("broken").Echo("garbage", "not a number")

	if got := ReadOr(context.Background(), scripted, "broken", false, logger); got {
		t.Fatal("expected false fallback for failing command")
	}
	if got := ReadOr(context.Background(), scripted, "garbage", 10.0, logger); got != 10 {
		t.Fatalf("expected 10 fallback for unparsable output, got %v", got)
	}
	if got := ReadOr(context.Background(), scripted, "", "none", logger); got != "none" {
		t.Fatalf("expected fallback for missing command, got %q", got)
	}

	warnings := buffer.Find(logging.LevelWarning, "command value unavailable, using default")
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings (missing command is silent), got %d", len(warnings))
	}
}

func TestFormatValues(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{Format(true), "true"},
		{Format(79.6), "79"},
		{Format(-0.5), "-1"},
		{Format("hdmi"), "hdmi"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, tc.got)
		}
	}
	if entry := ValueEntry(3.0); entry != "DAMA_VAL=3" {
		t.Fatalf("unexpected entry %q", entry)
	}
}
