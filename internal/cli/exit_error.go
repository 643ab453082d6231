package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/waypoint/internal/app"
	"github.com/alexanderramin/waypoint/internal/domain"
	"github.com/alexanderramin/waypoint/internal/repository"
)

// Process exit codes.
const (
	ExitFailure      = 1
	ExitInvalidInput = 2
	ExitMissingBlock = 3
	ExitNotFound     = 4
)

// ExitError is an error that carries an explicit process exit code.
type ExitError struct {
	code  int
	msg   string
	cause error
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// WrapExit creates an ExitError around cause. Codes below 1 become 1.
func WrapExit(code int, msg string, cause error) error {
	if code <= 0 {
		code = ExitFailure
	}
	return &ExitError{code: code, msg: msg, cause: cause}
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

// classify attaches an exit code to a use-case error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var reportErr *app.ReportError
	var missing *domain.MissingBlockError
	switch {
	case errors.As(err, &reportErr):
		return WrapExit(ExitInvalidInput, "invalid report request", err)
	case errors.As(err, &missing):
		return WrapExit(ExitMissingBlock, "course structure is inconsistent", err)
	case errors.Is(err, domain.ErrInvalidCourseKey):
		return WrapExit(ExitInvalidInput, "invalid course", err)
	case errors.Is(err, repository.ErrNotFound):
		return WrapExit(ExitNotFound, "not found", err)
	default:
		return err
	}
}
