package errors

import (
	"fmt"
)

// ErrNoGistID is returned when an operation needs an existing gist, but none
// is configured.
var ErrNoGistID = New("no gist id configured")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// Unauthorized is returned by the remote store when the credential is
// missing, invalid, or lacks permission for the request.
type Unauthorized struct {
	Message string
}

func (err Unauthorized) Error() string {
	if err.Message == "" {
		return "unauthorized"
	}
	return fmt.Sprintf("unauthorized: %s", err.Message)
}

// FriendlyMessage implements FriendlyError.
func (err Unauthorized) FriendlyMessage() string {
	return "The gist server rejected the access token.\n" +
		"Check that the token in your gistsync config (or $GISTSYNC_TOKEN) " +
		"is valid and has the `gist` scope."
}

// NotFound is returned when the referenced gist doesn't exist.
type NotFound struct {
	ID string
}

func (err NotFound) Error() string {
	return fmt.Sprintf("gist %q not found", err.ID)
}

// FriendlyMessage implements FriendlyError.
func (err NotFound) FriendlyMessage() string {
	return fmt.Sprintf("Gist %q does not exist.\n"+
		"Check the gist id in your gistsync config, or clear it to create "+
		"a new gist on the next upload.", err.ID)
}

// TransportError represents a connectivity or transient server failure while
// talking to the remote store.
type TransportError struct {
	Op  string
	Err error
}

func (err TransportError) Error() string {
	return fmt.Sprintf("%s: %s", err.Op, err.Err)
}

func (err TransportError) Unwrap() error {
	return err.Err
}

// FriendlyMessage implements FriendlyError.
func (err TransportError) FriendlyMessage() string {
	return fmt.Sprintf("Failed to reach the gist server (%s).\n"+
		"Check your network connection and proxy settings.\n\n"+
		"The underlying error was: %s", err.Op, err.Err)
}

// IsNotFound returns whether `err` was caused by a missing gist.
func IsNotFound(err error) bool {
	var target NotFound
	return As(err, &target)
}

// IsUnauthorized returns whether `err` was caused by a credential problem.
func IsUnauthorized(err error) bool {
	var target Unauthorized
	return As(err, &target)
}

// IsTransport returns whether `err` was caused by a connectivity problem.
func IsTransport(err error) bool {
	var target TransportError
	return As(err, &target)
}
