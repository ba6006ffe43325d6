// Package version reports build information for nescore
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/retroenv/retrogolib/buildinfo"
)

// set at build time via -ldflags
var (
	Version = "0.1.0"
	Commit  = ""
	Date    = ""
)

// Info contains build information
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

// Get returns the build information. Commit and date fall back to the VCS
// stamp the Go toolchain embeds when they were not set at link time.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if build, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range build.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = setting.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = setting.Value
				}
			}
		}
	}
	return info
}

// String formats the version, commit and date
func (i Info) String() string {
	return buildinfo.Version(i.Version, i.Commit, i.Date)
}

// Detailed returns the version line followed by the toolchain and platform
func (i Info) Detailed() string {
	return fmt.Sprintf("nescore %s (%s, %s)", i, i.GoVersion, i.Platform)
}
