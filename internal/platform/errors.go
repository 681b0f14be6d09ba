// ABOUTME: Error taxonomy for platform backend calls
// ABOUTME: Distinguishes bad credentials, unreachable backend, and rejected input

package platform

import "errors"

// Sentinel errors for backend call outcomes. The session controller is the
// only component that decides the user-visible consequence of each kind.
var (
	// ErrUnauthenticated means the backend rejected the credential (401/403).
	// The caller must clear the stored credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUnreachable means the backend could not be reached or did not answer
	// in time. The caller must preserve the stored credential and surface a
	// retryable state.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrNotFound means the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries the backend's rejection message for bad
// login/register input. The message is surfaced to the user verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsUnauthenticated reports whether err means the credential was rejected.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsUnreachable reports whether err means the backend could not answer.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrUnreachable)
}

// AsValidation returns the ValidationError wrapped in err, or nil.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
