package favorites

import (
	"errors"
	"fmt"
	"strings"

	"pullapod/internal/services"
)

// Kind classifies store failures.
type Kind string

const (
	KindFileRead     Kind = "FILE_READ_ERROR"
	KindFileWrite    Kind = "FILE_WRITE_ERROR"
	KindInvalidInput Kind = "INVALID_INPUT"
)

// Sentinels matched by errors.Is against a *StoreError of the same kind.
var (
	ErrFileRead     = errors.New("favorites read failed")
	ErrFileWrite    = errors.New("favorites write failed")
	ErrInvalidInput = errors.New("invalid favorites input")
)

// Validation failures raised by Service before touching disk.
var (
	ErrInvalidName   = fmt.Errorf("%w: feed name is empty after sanitization", services.ErrValidation)
	ErrInvalidFeedID = fmt.Errorf("%w: feed id must be a positive integer", services.ErrValidation)
	ErrInvalidURL    = fmt.Errorf("%w: feed url is required", services.ErrValidation)
	ErrFeedNotFound  = fmt.Errorf("%w: feed is not in favorites", services.ErrNotFound)
)

// ResetHint tells the user how to recover from an unreadable favorites file.
const ResetHint = "run 'pullapod favorite clear --force' to reset your favorites"

// StoreError describes a failed store operation.
type StoreError struct {
	Kind       Kind
	Op         string
	Path       string
	BackupPath string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.BackupPath != "" {
		fmt.Fprintf(&b, "; a backup was saved to %s", e.BackupPath)
	}
	if e.Kind == KindFileRead {
		b.WriteString("; ")
		b.WriteString(ResetHint)
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *StoreError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Recoverable reports whether retrying or resetting can fix the failure.
func (e *StoreError) Recoverable() bool {
	return e.Kind == KindFileRead || e.Kind == KindFileWrite
}

func (k Kind) sentinel() error {
	switch k {
	case KindFileRead:
		return ErrFileRead
	case KindFileWrite:
		return ErrFileWrite
	case KindInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// Tier names the decoding stage that rejected a document.
type Tier string

const (
	TierSyntax    Tier = "syntax"
	TierStructure Tier = "structure"
	TierSemantic  Tier = "semantic"
)

// ValidationError explains why a favorites document failed to decode.
type ValidationError struct {
	Tier   Tier
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s error: %s", e.Tier, e.Reason)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Tier, e.Field, e.Reason)
}

func invalidInput(op, path, message string) *StoreError {
	return &StoreError{Kind: KindInvalidInput, Op: op, Path: path, Message: message}
}
