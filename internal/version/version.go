// Package version carries build information set via -ldflags.
package version

import "runtime"

// Version is overridden at build time:
//
//	go build -ldflags "-X cli-page/internal/version.Version=v0.3.0"
var Version = "dev"

// String returns the version line printed by --version.
func String() string {
	return "cli-page " + Version + " (" + runtime.Version() + ")"
}
