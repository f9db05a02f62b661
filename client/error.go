package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps the amount of response body kept on an
// [UnexpectedStatusError].
const maxErrBodySize = 4 << 10 // 4KB

var (
	// ErrUnsupportedURL is returned when a resource path and the environment's
	// base URL do not compose into an absolute URL.
	ErrUnsupportedURL = errors.New("unsupported URL")
	// ErrRequestFailed wraps any failure reported by the transport or
	// while reading the response body.
	ErrRequestFailed = errors.New("request failed")
	// ErrDecodeFailed wraps failures decoding the response into the target type.
	ErrDecodeFailed = errors.New("decoding response")
	// ErrKeyPathNotFound is only returned for resources built with [WithStrictKeyPath].
	ErrKeyPathNotFound = errors.New("key path not found")
	// ErrInvalidMethod is returned for anything outside the [Method] constants.
	ErrInvalidMethod = errors.New("invalid http method")
	// ErrInvalidAttempts is returned by [FetchRetry] when attempts is below one.
	ErrInvalidAttempts = errors.New("attempts must be at least one")

	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// UnexpectedStatusError is returned when a resource declares the status
// codes it accepts via [WithExpectStatus] and the response carries another.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

func statusError(code int, body []byte) *UnexpectedStatusError {
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: code,
		Body:       string(body),
		Err:        err,
	}
}

// IsTransient reports whether err is worth retrying: transport failures,
// 429 Too Many Requests and 5xx responses. Malformed URLs, invalid
// methods, decode failures and missing key paths are terminal, as is a
// cancelled or expired context.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *UnexpectedStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
	}

	return errors.Is(err, ErrRequestFailed)
}
