package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable           = errors.New("server unavailable")
	ErrNotFound              = errors.New("note not found on server")
	ErrConflict              = errors.New("server has a newer version")
	ErrRejected              = errors.New("request rejected by server")
	ErrLocalDataNotAvailable = errors.New("local data unavailable")
)

// RemoteError is a non-success answer from the server.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	// Kind is one of ErrNotFound, ErrConflict, ErrRejected, ErrUnavailable.
	Kind error
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v (status %d)", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// IsRetryable reports whether a failed call may succeed when repeated later.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
