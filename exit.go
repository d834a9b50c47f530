package main

import (
	"errors"
	"fmt"

	"github.com/b0tShaman/idxreduce/config"
)

// ExitError carries a specific process exit status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// usageError marks err as a configuration problem.
func usageError(err error) error {
	return &ExitError{Code: 2, Err: err}
}

// exitCode maps configuration errors to 2 and every other failure to 1.
func exitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, config.ErrMissingFlag), errors.Is(err, config.ErrInvalid):
		return 2
	default:
		return 1
	}
}
