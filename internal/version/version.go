// Package version holds build version information injected at link time.
package version

// Version is the semantic version of the build.
// Overridden via -ldflags "-X github.com/lumenshell/lumen/internal/version.Version=..."
var Version = "dev"

// Commit is the git commit hash of the build.
var Commit = "unknown"
