package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dioptra/simchain/cmd/exitcodes"
	"github.com/dioptra/simchain/logging"
	"github.com/dioptra/simchain/logging/colors"
	"github.com/dioptra/simchain/scenario"
	"github.com/dioptra/simchain/utils"
	"github.com/fxamacker/cbor"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// runCmd represents the command provider for scenario runs.
var runCmd = &cobra.Command{
	Use:           "run",
	Short:         "Runs a scenario file against a fresh simulator",
	Long:          `Runs a scenario file against a fresh simulator`,
	Args:          cmdValidateRunArgs,
	RunE:          cmdRunScenario,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add all the flags allowed for the run command
	addRunFlags()

	// Add the run command and its associated flags to the root command
	rootCmd.AddCommand(runCmd)
}

// cmdValidateRunArgs makes sure that there are no positional arguments provided to the run command.
func cmdValidateRunArgs(cmd *cobra.Command, args []string) error {
	// Make sure we have no positional args
	if err := cobra.NoArgs(cmd, args); err != nil {
		err = fmt.Errorf("run does not accept any positional arguments, only flags and their associated values")
		cmdLogger.Error("Failed to validate args to the run command", err)
		return err
	}
	return nil
}

// cmdRunScenario executes the CLI run command: it locates the scenario file (--scenario, or scenario.json in the
// working directory), runs it, and optionally writes a final state dump to --state-out in JSON or CBOR format.
func cmdRunScenario(cmd *cobra.Command, args []string) error {
	// Enable console logging, honoring --verbose.
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		cmdLogger.Error("Failed to run the run command", err)
		return err
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := logging.NewLogger(level, true)

	// Check to see if --scenario was used and locate the scenario file.
	scenarioFlagUsed := cmd.Flags().Changed("scenario")
	scenarioPath, err := cmd.Flags().GetString("scenario")
	if err != nil {
		cmdLogger.Error("Failed to run the run command", err)
		return err
	}
	if !scenarioFlagUsed {
		workingDirectory, err := os.Getwd()
		if err != nil {
			cmdLogger.Error("Failed to run the run command", err)
			return err
		}
		scenarioPath = filepath.Join(workingDirectory, DefaultScenarioFilename)
	}

	// Read the scenario file.
	logger.Info("Reading the scenario file at: ", colors.Bold, scenarioPath, colors.Reset)
	s, err := scenario.ReadScenarioFromFile(scenarioPath)
	if err != nil {
		logger.Error("Failed to read the scenario file", err)
		return err
	}

	// Execute the scenario.
	result, runErr := scenario.NewRunner(logger.NewSubLogger("module", "scenario")).Run(s)
	if runErr != nil {
		logger.Error("Scenario run failed", runErr)
	}

	// Write the final state dump if requested and a simulator was created.
	stateOutPath, err := cmd.Flags().GetString("state-out")
	if err != nil {
		cmdLogger.Error("Failed to run the run command", err)
		return err
	}
	if stateOutPath != "" && result != nil && result.Simulator != nil {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			cmdLogger.Error("Failed to run the run command", err)
			return err
		}
		if err = writeStateDump(result, stateOutPath, format); err != nil {
			logger.Error("Failed to write the state dump", err)
			return err
		}
		logger.Info("Wrote the final state dump to: ", colors.Bold, stateOutPath, colors.Reset)
	}

	// A failed run carries a dedicated exit code so harnesses can tell run failures from usage errors.
	if runErr != nil {
		return exitcodes.NewErrorWithExitCode(runErr, exitcodes.ExitCodeScenarioFailed)
	}
	return nil
}

// writeStateDump serializes the run's final simulator state to the provided path, in JSON (default) or CBOR format.
func writeStateDump(result *scenario.RunResult, path string, format string) error {
	dump := result.Simulator.DumpState()

	var encoded []byte
	var err error
	switch format {
	case "cbor":
		encoded, err = cbor.Marshal(dump, cbor.EncOptions{Canonical: true})
	default:
		encoded, err = json.MarshalIndent(dump, "", "\t")
	}
	if err != nil {
		return err
	}

	file, err := utils.CreateFile(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.Write(encoded)
	return err
}
