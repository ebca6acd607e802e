// Package errors contains the error helpers used throughout gistsync. Errors
// are annotated with short context strings as they're returned up the stack,
// and errors that should be shown to the user as-is implement FriendlyError.
package errors

import (
	goerrors "errors"
	"fmt"
)

// New creates a new error. Like fmt.Errorf, the message may be a format
// string.
func New(format string, args ...interface{}) error {
	if len(args) == 0 {
		return goerrors.New(format)
	}
	return fmt.Errorf(format, args...)
}

// contextError annotates an error with the action that was being performed
// when it occurred.
type contextError struct {
	err     error
	context string
}

// WithContext wraps `err` so that its message is prefixed by `context`.
// It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{err: err, context: context}
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user, rather than a developer-facing chain of contexts.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

// NewFriendlyError creates an error with a message that's safe to show to
// the user.
func NewFriendlyError(format string, args ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, args...)}
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// RootCause strips all context from `err`, and returns the error that was
// originally returned.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(contextError)
		if !ok {
			return err
		}
		err = ctxErr.err
	}
}

// GetFriendlyError returns the first FriendlyError in err's chain.
func GetFriendlyError(err error) (FriendlyError, bool) {
	var friendly FriendlyError
	if goerrors.As(err, &friendly) {
		return friendly, true
	}
	return nil, false
}

// As is a passthrough to the standard library so that callers don't need to
// import both error packages.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}

// Is is a passthrough to the standard library.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}
