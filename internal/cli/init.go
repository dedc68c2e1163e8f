package cli

import (
	"github.com/spf13/cobra"

	"github.com/synapse-cir/cirrepair/internal/workspace"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a .cir workspace in the current directory",
	Long: `Creates a .cir control directory holding config.yaml and
copies of the built-in prompt templates (runs use the built-in ones).

Edit .cir/config.yaml to point the executor at your test interpreter
and the llm section at your model provider, then run 'cir run'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return workspace.Init(initForce)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing .cir workspace")
	rootCmd.AddCommand(initCmd)
}
