// Package errs holds the failure conditions shared by the engine packages.
//
// Every error returned by the engine wraps one of the sentinels below, so callers
// can branch on the condition with errors.Is while still getting the detail of the
// call that detected it.
package errs

import "github.com/pkg/errors"

// Error is a condition with no additional information attached.
type Error struct{ string }

func (err Error) Error() string {
	return err.string
}

var (
	// ErrInvalidShape reports a dimension that does not match what the call expects:
	// broken width chaining, a batch of the wrong width, or labels that do not line up
	// with the batch.
	ErrInvalidShape = Error{"invalid shape"}

	// ErrInvalidConfiguration reports a hyperparameter outside its domain.
	ErrInvalidConfiguration = Error{"invalid configuration"}
)

// Shapef wraps ErrInvalidShape with a formatted message.
func Shapef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidShape, format, args...)
}

// Configf wraps ErrInvalidConfiguration with a formatted message.
func Configf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}
