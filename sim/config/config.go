package config

// SimulatorConfig represents the configuration for a simulator instance.
type SimulatorConfig struct {
	// InitialBlockHeight is the block height the simulator's clock starts at.
	InitialBlockHeight uint64 `json:"initialBlockHeight"`

	// InitialBlockTimestamp is the timestamp, in microseconds, the simulator's
	// clock starts at.
	InitialBlockTimestamp uint64 `json:"initialBlockTimestamp"`

	// BlockIntervalMicros is the amount of simulated time, in microseconds,
	// that passes per block advanced.
	BlockIntervalMicros uint64 `json:"blockIntervalMicros"`

	// TokenDecimals is the number of decimal places in the simulated native
	// token, used when scaling human-readable amounts to base units.
	TokenDecimals int `json:"tokenDecimals"`
}
