package api

import (
	"errors"
	"fmt"
)

// TransportError covers failures to reach the API or non-2xx answers.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
		}
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the response did not have the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RejectedError is an ok:false answer. Code and Description are only filled
// when the server sent them (login does, logout and sync do not).
type RejectedError struct {
	Op          string
	Code        string
	Description string
}

func (e *RejectedError) Error() string {
	switch {
	case e.Description != "":
		return fmt.Sprintf("%s rejected: %s", e.Op, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s rejected: %s", e.Op, e.Code)
	default:
		return fmt.Sprintf("%s rejected", e.Op)
	}
}

// IsRejected reports whether err carries an application-level rejection.
func IsRejected(err error) bool {
	var rejected *RejectedError
	return errors.As(err, &rejected)
}
