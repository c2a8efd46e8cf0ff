package common

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via -ldflags "-X github.com/ternarybob/greattrades/internal/common.Version=..."
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetBuildInfo returns the linked version fields. Binaries built without
// ldflags fall back to the VCS revision recorded by the go tool.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Build:     Build,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}

	if info.GitCommit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, setting := range bi.Settings {
				if setting.Key == "vcs.revision" && setting.Value != "" {
					info.GitCommit = setting.Value
				}
			}
		}
	}
	return info
}

// GetFullVersion returns version with build info
func GetFullVersion() string {
	info := GetBuildInfo()
	return fmt.Sprintf("%s (build: %s, commit: %s, %s)", info.Version, info.Build, info.GitCommit, info.GoVersion)
}
