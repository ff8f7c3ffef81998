package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means an operation that needs a credential was
// attempted without one. No request is made in that case.
var ErrUnauthenticated = errors.New("no credential")

// InvalidInputError reports input rejected before any network call.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StatusError is a non-2xx response. Body holds the raw response body;
// Detail is the service's own message when the body carried one.
type StatusError struct {
	Status int
	Body   string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("service error %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("service error %d", e.Status)
}

// IsAuth reports whether the server rejected the credential itself.
func (e *StatusError) IsAuth() bool {
	return e.Status == 401 || e.Status == 403
}

// NetworkError means no response was obtained at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthRejection reports whether err is a 401/403 StatusError, i.e.
// the server no longer honors the stored credential.
func IsAuthRejection(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.IsAuth()
}
