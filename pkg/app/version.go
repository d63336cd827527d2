package app

import "fmt"

// Version and Commit are set via ldflags at build time.
// Example: go build -ldflags "-X github.com/japaniel/etymoagent/pkg/app.Version=1.0.0"
var (
	Version = "dev"
	Commit  = "unknown"
)

// BuildVersion returns a formatted version string for the CLI and startup logs.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
