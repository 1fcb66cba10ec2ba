// Package version carries build metadata, set with
// -ldflags "-X github.com/banshee-data/footsync/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output.
func String() string {
	return fmt.Sprintf("footsync %s (%s, built %s)", Version, GitSHA, BuildTime)
}
