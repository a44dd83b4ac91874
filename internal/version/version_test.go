package version

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetParsesStampedVersion(t *testing.T) {
	previous := [3]string{Version, Built, GitCommit}
	t.Cleanup(func() {
		Version, Built, GitCommit = previous[0], previous[1], previous[2]
	})
	Version, Built, GitCommit = "v1.2.3-rc1", "2026-01-11T12:34:56Z", "abc123"

	want := Info{Version: "v1.2.3-rc1", Major: 1, Minor: 2, Patch: 3, Built: "2026-01-11T12:34:56Z", GitCommit: "abc123"}
	if diff := cmp.Diff(want, Get()); diff != "" {
		t.Fatalf("version info mismatch (-want +got):\n%s", diff)
	}
}

func TestInfoString(t *testing.T) {
	cases := map[string]Info{
		"dama dev":                                {Version: "dev"},
		"dama 0.4.0 commit deadbee":               {Version: "0.4.0", Minor: 4, GitCommit: "deadbee"},
		"dama v1.0.0-rc2 (1.0.0) built yesterday": {Version: "v1.0.0-rc2", Major: 1, Built: "yesterday"},
	}
	for want, info := range cases {
		if got := info.String(); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}

func TestSemverRejectsMalformed(t *testing.T) {
	for _, value := range []string{"dev", "1.2", "1.x.3", "1.2.3.4", ""} {
		if major, minor, patch := semver(value); major+minor+patch != 0 {
			t.Fatalf("%q: expected 0.0.0, got %d.%d.%d", value, major, minor, patch)
		}
	}
}
