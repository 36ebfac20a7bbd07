package credential

import (
	"errors"
	"fmt"
)

// ErrTokenUnavailable classifies every failure to obtain a token,
// whether the transport, the HTTP status or the response body was at
// fault. errors.Is(err, ErrTokenUnavailable) holds for FetchError and
// ResponseError alike.
var ErrTokenUnavailable = errors.New("unable to obtain token")

// FetchError reports a failed token fetch: either a transport level
// failure (Cause set, StatusCode zero) or a non 2xx answer from the
// authorization server (StatusCode and Body set).
type FetchError struct {
	URL        string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements error.
func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to fetch token from %v: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("failed to fetch token from %v: server returned status %v: %v", e.URL, e.StatusCode, e.Body)
}

// Unwrap exposes the transport cause, if any.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is marks every FetchError as ErrTokenUnavailable.
func (e *FetchError) Is(target error) bool {
	return target == ErrTokenUnavailable
}

// ResponseError reports a 2xx answer whose body did not carry a usable
// token, i.e. invalid JSON or required fields missing.
type ResponseError struct {
	URL    string
	Reason string
	Cause  error
}

// Error implements error.
func (e *ResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed token response from %v: %v: %v", e.URL, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed token response from %v: %v", e.URL, e.Reason)
}

// Unwrap exposes the decoding cause, if any.
func (e *ResponseError) Unwrap() error {
	return e.Cause
}

// Is marks every ResponseError as ErrTokenUnavailable.
func (e *ResponseError) Is(target error) bool {
	return target == ErrTokenUnavailable
}

// IsFetchError reports whether err or anything it wraps is a FetchError.
func IsFetchError(err error) bool {
	var fetchError *FetchError
	return errors.As(err, &fetchError)
}

// IsResponseError reports whether err or anything it wraps is a
// ResponseError.
func IsResponseError(err error) bool {
	var responseError *ResponseError
	return errors.As(err, &responseError)
}
