package errors

import "errors"

// Exit codes returned by the bundler binary.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitValidationError indicates the configuration is invalid.
	ExitValidationError = 2

	// ExitPermissionDenied indicates insufficient filesystem permissions.
	ExitPermissionDenied = 4

	// ExitNotFound indicates a module, entry point or file was not found.
	ExitNotFound = 5

	// ExitParseError indicates a module could not be scanned.
	ExitParseError = 7

	// ExitTransformError indicates a plugin failed.
	ExitTransformError = 8

	// ExitEmitError indicates an artifact could not be written.
	ExitEmitError = 9
)

// ExitError wraps an error with an exit code.
type ExitError struct {
	Err  error
	Code int

	// Printed is set when the command already reported the error.
	Printed bool
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeFromError determines the exit code for err.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, ErrValidation):
		return ExitValidationError
	case errors.Is(err, ErrPermission):
		return ExitPermissionDenied
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrParse):
		return ExitParseError
	case errors.Is(err, ErrTransform):
		return ExitTransformError
	case errors.Is(err, ErrEmit):
		return ExitEmitError
	default:
		return ExitGeneralError
	}
}

// ExitCodeName returns the name of an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitPermissionDenied:
		return "Permission Denied"
	case ExitNotFound:
		return "Not Found"
	case ExitParseError:
		return "Parse Error"
	case ExitTransformError:
		return "Transform Error"
	case ExitEmitError:
		return "Emit Error"
	default:
		return "Unknown"
	}
}
