package tomlkeys

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTableAndDottedSpellingsAgree(t *testing.T) {
	for _, input := range []string{
		"[watch]\nmax-watches = 64\n",
		"watch.max-watches = 64\n",
		"[Watch]\nMAX_WATCHES = 64\n",
	} {
		values, err := Decode([]byte(input))
		if err != nil {
			t.Fatalf("decode %q: %v", input, err)
		}
		if got, ok := values.Int("watch.max_watches"); !ok || got != 64 {
			t.Fatalf("%q: expected 64, got %d (found=%v)", input, got, ok)
		}
	}
}

func TestAccessorsCheckTypes(t *testing.T) {
	values, err := Decode([]byte("recursive = true\nbuffer-size = 7\nlevel = \" debug \"\nratio = 2.5\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if flag, ok := values.Bool("recursive"); !ok || !flag {
		t.Fatal("expected recursive true")
	}
	if level, ok := values.String("level"); !ok || level != "debug" {
		t.Fatalf("expected trimmed level, got %q", level)
	}
	if _, ok := values.String("buffer-size"); ok {
		t.Fatal("integer should not read as a string")
	}
	if _, ok := values.Int("ratio"); ok {
		t.Fatal("fractional float should not read as an integer")
	}
}

func TestDurationForms(t *testing.T) {
	values := Values{}
	values.Set("a", "2s")
	values.Set("b", int64(250))
	values.Set("c", "  ")
	values.Set("d", "soon")

	cases := []struct {
		key   string
		want  time.Duration
		found bool
		fails bool
	}{
		{key: "a", want: 2 * time.Second, found: true},
		{key: "b", want: 250 * time.Millisecond, found: true},
		{key: "c"},
		{key: "missing"},
		{key: "d", found: true, fails: true},
	}
	for _, testCase := range cases {
		got, found, err := values.Duration(testCase.key)
		if (err != nil) != testCase.fails {
			t.Fatalf("%s: unexpected error state %v", testCase.key, err)
		}
		if got != testCase.want || found != testCase.found {
			t.Fatalf("%s: got %s found=%v, want %s found=%v", testCase.key, got, found, testCase.want, testCase.found)
		}
	}
}

func TestOverlayAndKeys(t *testing.T) {
	base, err := Decode([]byte("[log]\nLevel = \"info\"\n[metrics]\nfile = \"\"\n"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	upper := Values{}
	upper.Set("Log.Level", "debug")
	upper.Set("  ", "ignored")

	merged := base.Clone()
	merged.Overlay(upper)
	if diff := cmp.Diff([]string{"log.level", "metrics.file"}, merged.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if level, _ := merged.String("log.level"); level != "debug" {
		t.Fatalf("expected overlay to win, got %q", level)
	}
	if level, _ := base.String("log.level"); level != "info" {
		t.Fatalf("expected clone to leave base untouched, got %q", level)
	}
}
