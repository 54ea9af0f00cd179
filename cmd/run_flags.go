package cmd

import (
	"fmt"
)

// addRunFlags adds the various flags for the run command.
func addRunFlags() {
	// Prevent alphabetical sorting of usage message
	runCmd.Flags().SortFlags = false

	// Scenario file
	runCmd.Flags().String("scenario", "",
		fmt.Sprintf("path to the scenario file (default is %q in the working directory)", DefaultScenarioFilename))

	// State dump output
	runCmd.Flags().String("state-out", "",
		"file path to write the final simulator state dump to (state is not written if unset)")

	// State dump format
	runCmd.Flags().String("format", "json",
		"state dump format, either \"json\" or \"cbor\"")

	// Verbosity
	runCmd.Flags().Bool("verbose", false,
		"enable debug-level console output")
}
