// Package common provides error behaviours shared between the bootstrap
// packages and the CLI presentation layer.
package common

import "errors"

// SilenceUsageError is implemented by errors that should NOT trigger
// CLI usage information: the command syntax was fine, something else failed.
type SilenceUsageError interface {
	error
	ShouldSilenceUsage() bool
}

// UserFacingError is implemented by errors that carry a message meant to be
// shown to the user verbatim.
type UserFacingError interface {
	error
	UserMessage() string
}

// RecoverableError is implemented by errors that suggest a recovery action.
type RecoverableError interface {
	error
	RecoveryHint() string
}

// ShouldSilenceUsage checks if an error should silence CLI usage output.
func ShouldSilenceUsage(err error) bool {
	var sue SilenceUsageError
	if errors.As(err, &sue) {
		return sue.ShouldSilenceUsage()
	}
	return false
}

// GetUserMessage extracts a user-friendly message from an error, falling back
// to Error().
func GetUserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ufe UserFacingError
	if errors.As(err, &ufe) {
		return ufe.UserMessage()
	}
	return err.Error()
}

// GetRecoveryHint extracts a recovery hint from an error.
// Returns empty string if no hint is available.
func GetRecoveryHint(err error) string {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.RecoveryHint()
	}
	return ""
}

// HintedError decorates an error with a recovery hint. It is operational,
// so usage output is silenced.
type HintedError struct {
	Err  error
	Hint string
}

// WithHint wraps err with a recovery hint.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return &HintedError{Err: err, Hint: hint}
}

func (e *HintedError) Error() string { return e.Err.Error() }

func (e *HintedError) Unwrap() error { return e.Err }

// RecoveryHint implements RecoverableError.
func (e *HintedError) RecoveryHint() string { return e.Hint }

// ShouldSilenceUsage implements SilenceUsageError.
func (e *HintedError) ShouldSilenceUsage() bool { return true }
