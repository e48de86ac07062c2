package api

import (
	"errors"
	"fmt"
)

// ErrAuthExpired marks a session that can no longer be refreshed. Callers
// should redirect to sign-in.
var ErrAuthExpired = errors.New("authentication expired")

// NetworkError wraps a transport-level failure: the remote call never
// produced a decodable envelope. Never cached, always propagated.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Error is a server-side rejection: the envelope came back with
// status "error". StatusCode carries the HTTP status.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// AsAPIError unwraps a server-side rejection, if err is one.
func AsAPIError(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
