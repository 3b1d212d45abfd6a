// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package backend

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrConflict    = errors.New("backend: precondition failed (stale version)")
	ErrUnavailable = errors.New("backend: host unreachable or transport failure")
	ErrUpstream    = errors.New("backend: error response")
	ErrBadResponse = errors.New("backend: invalid response format or malformed data")
)

// HTTPError wraps a sentinel with the exchange it came from. Status is 0 when
// no response was received.
type HTTPError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      []byte
	Err       error // lower-level cause (net.Error, json error)
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("backend: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return e.Sentinel
}

// StatusCode returns the HTTP status (0 when no response arrived).
func (e *HTTPError) StatusCode() int { return e.Status }

// ResponseBody returns the raw error body for classification.
func (e *HTTPError) ResponseBody() []byte { return e.Body }
