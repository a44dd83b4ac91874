// Package version reports the build identity stamped in with -ldflags, for
// example -X dama/internal/version.Version=1.4.0.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

var (
	Version   = "dev"
	Built     = ""
	GitCommit = ""
)

type Info struct {
	Version string `json:"version"`
	// Major, Minor and Patch are parsed from Version; they stay zero for
	// builds that are not tagged releases.
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	Built     string `json:"built,omitempty"`
	GitCommit string `json:"git_commit,omitempty"`
}

func Get() Info {
	info := Info{Version: Version, Built: Built, GitCommit: GitCommit}
	info.Major, info.Minor, info.Patch = semver(Version)
	return info
}

// semver reads "1.2.3", "v1.2.3" or "1.2.3-rc1". Anything else is 0.0.0.
func semver(value string) (int, int, int) {
	core, _, _ := strings.Cut(strings.TrimPrefix(value, "v"), "-")
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return 0, 0, 0
	}
	numbers := [3]int{}
	for i, part := range parts {
		parsed, err := strconv.Atoi(part)
		if err != nil || parsed < 0 {
			return 0, 0, 0
		}
		numbers[i] = parsed
	}
	return numbers[0], numbers[1], numbers[2]
}

// String renders the line printed by `dama version`.
func (info Info) String() string {
	line := "dama " + info.Version
	if info.Major+info.Minor+info.Patch > 0 && strings.TrimPrefix(info.Version, "v") != fmt.Sprintf("%d.%d.%d", info.Major, info.Minor, info.Patch) {
		line += fmt.Sprintf(" (%d.%d.%d)", info.Major, info.Minor, info.Patch)
	}
	if info.GitCommit != "" {
		line += " commit " + info.GitCommit
	}
	if info.Built != "" {
		line += " built " + info.Built
	}
	return line
}
