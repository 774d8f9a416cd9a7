package main

import (
	"runtime/debug"

	"github.com/techtranslator/techtranslator/cmd"
)

// Release builds stamp these through -ldflags "-X main.version=... ";
// everything else falls back to the defaults below.
var (
	version = "1.0.0"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, resolveCommit(), date)
}

// resolveCommit prefers the ldflags value, then the VCS revision Go embeds
// into plain `go build` binaries.
func resolveCommit() string {
	if commit != "none" {
		return commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return commit
}
