// Package version reports how the hybridsearch binary was built.
//
// Release builds stamp Version, Commit and Date with
//
//	-ldflags "-X github.com/Aman-CERP/hybridsearch/pkg/version.Version=v1.2.3"
//
// Values left unset fall back to the module and VCS data the Go toolchain
// embeds in the binary, so `go install` builds still report their origin.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Name is the program name shown in version output.
const Name = "hybridsearch"

// Overridable at link time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

var readBuildInfo = sync.OnceValues(debug.ReadBuildInfo)

// GetInfo returns the linked-in values, filled from the embedded build
// metadata where they were not set.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	return fillFromBuild(info, bi)
}

func fillFromBuild(info BuildInfo, bi *debug.BuildInfo) BuildInfo {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String is the one-line form used by `hybridsearch version`.
func String() string {
	info := GetInfo()
	commit := info.Commit
	if info.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, info.Version, commit, info.Date, info.GoVersion)
}

// Short returns just the version.
func Short() string {
	return GetInfo().Version
}
