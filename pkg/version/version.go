package version

import "fmt"

// Set via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "none"
)

func String() string {
	return fmt.Sprintf("sujin %s (%s)", Version, Commit)
}
