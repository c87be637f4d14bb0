// Package version reports the build version of view-precompile.
package version

import (
	"fmt"
	"runtime/debug"
)

var (
	// Version information, set at build time via ldflags
	Version   = "dev"     // Version string (e.g., "v1.2.0")
	GitCommit = "unknown" // Git commit hash
	BuildTime = "unknown" // Build timestamp
)

// GetVersion returns the ldflags version, the module version recorded by
// `go install`, or "dev"
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return Version
}

// GetFullVersion returns the version with commit and build time when known
func GetFullVersion() string {
	version := GetVersion()
	if GitCommit != "unknown" {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		version = fmt.Sprintf("%s (commit: %s)", version, commit)
	}
	if BuildTime != "unknown" {
		version += " built " + BuildTime
	}
	return version
}
