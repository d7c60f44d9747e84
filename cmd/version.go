package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X github.com/abhisek/mentor/cmd.version=...".
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		rev, dirty := vcsRevision()
		switch {
		case rev == "":
			fmt.Printf("mentor %s (%s)\n", version, runtime.Version())
		case dirty:
			fmt.Printf("mentor %s (%s, %s-dirty)\n", version, runtime.Version(), rev)
		default:
			fmt.Printf("mentor %s (%s, %s)\n", version, runtime.Version(), rev)
		}
	},
}

// vcsRevision returns the short commit the binary was built from, if the
// toolchain stamped one.
func vcsRevision() (rev string, dirty bool) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	return rev, dirty
}
