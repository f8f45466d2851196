package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/sessiond/errors"
)

// ErrorHandler provides user-friendly error messages.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates an error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{Verbose: verbose}
}

// Handle prints a user-friendly message for the error and returns it.
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeSessionNotFound:
		if se, ok := err.(*errors.SessiondError); ok {
			fmt.Fprintf(os.Stderr, "Session '%v' not found.\n", se.Details["session_id"])
			fmt.Fprintf(os.Stderr, "Run 'sessiond list' to see indexed sessions.\n")
		}
		return err

	case errors.ErrCodeDaemonNotRunning, errors.ErrCodeDaemonUnreachable:
		fmt.Fprintf(os.Stderr, "The sessiond daemon is not running.\n")
		fmt.Fprintf(os.Stderr, "Start it with 'sessiond daemon start', or rerun the command; queries fall back to a local scan.\n")
		return err

	case errors.ErrCodeConfigNotFound:
		if se, ok := err.(*errors.SessiondError); ok {
			fmt.Fprintf(os.Stderr, "Configuration file not found: %v\n", se.Details["path"])
		}
		return err

	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if h.Verbose {
			if se, ok := err.(*errors.SessiondError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", se.ToJSON())
			}
		}
		return err
	}
}
