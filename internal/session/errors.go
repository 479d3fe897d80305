package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by a Store when the key is absent
	ErrNotFound = errors.New("key not found")

	ErrAuthentication   = errors.New("authentication failed")
	ErrCorruptedSession = errors.New("corrupted persisted session")
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrEmptyUser rejects a user without an ID
	ErrEmptyUser = errors.New("user has no id")
)

// AuthenticationError reports a failed session-creation exchange. Cause is
// whatever the transport returned (network error, *client.APIError, ...).
type AuthenticationError struct {
	Cause error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrAuthentication, e.Cause)
}

func (e *AuthenticationError) Unwrap() []error {
	return []error{ErrAuthentication, e.Cause}
}

// CorruptedSessionError reports a persisted user record that could not be
// decoded at restore time. The session was reset to anonymous.
type CorruptedSessionError struct {
	Key   string
	Cause error
}

func (e *CorruptedSessionError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrCorruptedSession, e.Key, e.Cause)
}

func (e *CorruptedSessionError) Unwrap() []error {
	return []error{ErrCorruptedSession, e.Cause}
}
