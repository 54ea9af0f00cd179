package exitcodes

const (
	// ================================
	// Platform-universal exit codes
	// ================================

	// ExitCodeSuccess indicates no errors or failures had occurred.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates some type of general error occurred.
	ExitCodeGeneralError = 1

	// ================================
	// Application-specific exit codes
	// ================================
	// Note: Despite not being standardized, exit codes 2-5 are often used for common use cases, so we avoid them.

	// ExitCodeScenarioFailed indicates a scenario run failed: a step errored unexpectedly or succeeded when it was
	// expected to fail. Note that an error with code ExitCodeGeneralError and ExitCodeScenarioFailed are mutually
	// exclusive.
	ExitCodeScenarioFailed = 6
)
