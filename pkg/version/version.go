// Package version reports the trustmap build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version. It is a var so release builds can set it:
//
//	go build -ldflags "-X github.com/vanderheijden86/trustmap/pkg/version.Version=v1.2.3"
var Version = "v0.1.0-dev"

// Commit is the VCS revision, filled from build info when not set by ldflags.
var Commit = ""

func init() {
	if Commit != "" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			Commit = s.Value[:7]
		}
	}
}

// String is the one-line form printed by `trustmap version`.
func String() string {
	if Commit == "" {
		return fmt.Sprintf("trustmap %s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("trustmap %s (%s, %s/%s)", Version, Commit, runtime.GOOS, runtime.GOARCH)
}
