// Package version holds build metadata stamped in at link time via
// -ldflags "-X ...".
package version

import "runtime"

var (
	// Version is the release tag, or "dev" for local builds.
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GoVersion reports the Go runtime the binary was built with.
func GoVersion() string { return runtime.Version() }
