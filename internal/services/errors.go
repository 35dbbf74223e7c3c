package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error markers. Wrap tags an error with one of these so callers can classify
// it with errors.Is without parsing messages.
var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrUpstream      = errors.New("upstream service error")
	ErrTransient     = errors.New("transient failure")
)

// Process exit codes returned by ExitCode.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// Wrap tags err with marker and prefixes it with the non-empty parts of
// scope, operation and message. A nil marker means ErrTransient.
func Wrap(marker error, scope, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := joinDetail(scope, operation, message)
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// Validationf reports invalid user input. Commands return it before doing any
// I/O so nothing is half-applied.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsUserError reports whether err stems from input or configuration the user
// can fix, as opposed to a runtime failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration)
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case IsUserError(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func joinDetail(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "service failure"
	}
	return strings.Join(kept, ": ")
}
