package imgmeta

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the semantic version of the imgmeta library.
const Version = "0.1.0"

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildTime string
	GoVersion string
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("imgmeta %s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}

// GetVersionInfo returns detailed version information.
//
// GitCommit and BuildTime come from -ldflags when set:
//
//	go build -ldflags="-X github.com/simonhull/imgmeta.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/imgmeta.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Otherwise they fall back to the VCS stamp the go tool embeds, and then
// to "unknown".
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == "unknown":
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildTime == "unknown":
				info.BuildTime = s.Value
			}
		}
	}
	return info
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
