package network

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *FetchError via errors.Is.
var ErrTransport = errors.New("transport error")

// FetchError is returned when a page could not be loaded: the request failed,
// the server answered with a non-2xx status, or the body could not be read.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrTransport }
