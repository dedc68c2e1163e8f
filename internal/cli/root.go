package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set by goreleaser via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "cir",
	Short: "Controlled Iterative Repair: an autonomous program-repair engine",
	Long: `cir drives a failing codebase through a bounded repair loop:
reproduce the failure, analyze its root cause, patch it, and validate
the patch — replanning on dead ends and giving up cleanly once a hard
iteration cap is reached.

Workflow:
  1. cir init               # seed a .cir workspace in the project to repair
  2. cir run "<goal>"       # run one repair task to completion
  3. cir serve              # or expose the same loop over HTTP`,
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cir version %s\n", Version))
}
