package exitcodes

// ErrorWithExitCode is an `error` type that pairs an underlying error with the exit code the process should use if
// the error bubbles up to the top level.
type ErrorWithExitCode struct {
	err      error
	exitCode int
}

// NewErrorWithExitCode creates a new ErrorWithExitCode with the provided internal error and exit code.
func NewErrorWithExitCode(err error, exitCode int) *ErrorWithExitCode {
	return &ErrorWithExitCode{
		err:      err,
		exitCode: exitCode,
	}
}

// Error returns the error message string, implementing the `error` interface.
func (e *ErrorWithExitCode) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// GetInnerErrorAndExitCode resolves the exit code the application should use for the given error: 0 for nil, the
// wrapped code for an ErrorWithExitCode, or 1 for any other error. Returns the error (unwrapped, if it was an
// ErrorWithExitCode) along with the exit code.
func GetInnerErrorAndExitCode(err error) (error, int) {
	switch e := err.(type) {
	case nil:
		return nil, ExitCodeSuccess
	case *ErrorWithExitCode:
		return e.err, e.exitCode
	default:
		return err, ExitCodeGeneralError
	}
}
