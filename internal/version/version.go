// Package version carries build metadata injected at link time.
package version

import "fmt"

// Version is set with
// go build -ldflags "-X git.home.luguber.info/inful/sitesmith/internal/version.Version=v0.3.0".
var Version = "dev"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("sitesmith %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
