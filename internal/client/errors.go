package client

import (
	"errors"
	"fmt"
)

// User-visible messages for the two failure classes of the fetch path.
const (
	MessageNotFound = "News not found"
	MessageFailed   = "Failed to fetch news"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("news not found")

// CommunicationError reports a failed request or a non-success status other
// than 404. StatusCode is zero when no response was received.
type CommunicationError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *CommunicationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// Message maps err to the text shown to a reader.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return MessageNotFound
	default:
		return MessageFailed
	}
}
