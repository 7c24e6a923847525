package apiclient

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned, before any network call, for a request
// without resource group, name or id.
var ErrInvalidRequest = errors.New("apiclient: invalid request")

// APIError is a completed HTTP exchange with a non-2xx status.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.Path, e.Status, e.Body)
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
