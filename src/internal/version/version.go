// FILE: src/internal/version/version.go
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at link time: -ldflags "-X pulse/src/internal/version.Version=v1.2.0 ..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// String returns version, commit and build time, filling commit and time
// from module build info when they were not linked in
func String() string {
	commit, built := GitCommit, BuildTime
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && commit == "unknown":
				commit = s.Value
			case s.Key == "vcs.time" && built == "unknown":
				built = s.Value
			}
		}
	}
	return fmt.Sprintf("pulse %s (commit: %s, built: %s)", Short(), commit, built)
}

// Short returns the version tag, or the module version for go install builds
func Short() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

// UserAgent identifies pulse to collectors
func UserAgent() string {
	return "pulse/" + Short()
}
