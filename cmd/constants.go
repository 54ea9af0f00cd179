package cmd

// DefaultScenarioFilename describes the scenario filename the run command looks for in the working directory when
// --scenario is not provided.
const DefaultScenarioFilename = "scenario.json"
