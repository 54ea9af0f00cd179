package cmd

import (
	"github.com/dioptra/simchain/logging"
	"github.com/spf13/cobra"
)

// cmdLogger is the logger used by all CLI commands. Console output is enabled by individual commands as needed.
var cmdLogger = logging.GlobalLogger.NewSubLogger("module", "cmd")

// rootCmd represents the root CLI command.
var rootCmd = &cobra.Command{
	Use:   "simchain",
	Short: "A deterministic in-process contract-execution simulator",
	Long:  "simchain runs deterministic contract-execution scenarios against an in-process simulator",
}

// Execute provides an exportable function to invoke the CLI.
// Returns an error if one was encountered.
func Execute() error {
	return rootCmd.Execute()
}
