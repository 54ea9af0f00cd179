package config

// DefaultSimulatorConfig obtains a default configuration for a sim.Simulator.
// The clock starts at height zero with a two second block interval; there is
// deliberately no randomness here so test runs stay reproducible.
// Returns a SimulatorConfig populated with default values.
func DefaultSimulatorConfig() (*SimulatorConfig, error) {
	// Create a default config and return it.
	config := &SimulatorConfig{
		InitialBlockHeight:    0,
		InitialBlockTimestamp: 0,
		BlockIntervalMicros:   2_000_000,
		TokenDecimals:         18,
	}

	// Return the generated configuration.
	return config, nil
}
