package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lanectl",
	Short: "Drive the Lane A knowledge-state orchestrator",
	Long: `lanectl keeps a project's Lane A knowledge state current: indexing
repositories, consuming knowledge-change events, tracking staleness, and
deciding the next action a writer or committee should take.

All state lives under AI_PROJECT_ROOT; lanectl never mutates the
repositories it inspects.`,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lanectl %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
