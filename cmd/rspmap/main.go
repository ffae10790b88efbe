// Command rspmap analyzes AI labs' risk-governance policies for
// harmonization gaps.
package main

import "github.com/policyscale/rspmap/cmd/rspmap/cmd"

// Build-time variables set by ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
