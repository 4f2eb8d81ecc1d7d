package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrOffline is returned when an operation requires connectivity.
	ErrOffline = errors.New("no internet connection")
	// ErrLinkNotFound is returned for ids missing from the current list.
	ErrLinkNotFound = errors.New("link not found")

	ErrUnknownMessage = errors.New("unknown message type")
	ErrWrongDirection = errors.New("message sent in the wrong direction")
	ErrChannelClosed  = errors.New("message channel closed")
)

// RemoteError is a failure reported by the CRUD endpoint, either as a
// non-2xx status or as a body with status "error".
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote error: %s (HTTP %d)", e.Message, e.StatusCode)
}
