package irceline

import (
	"errors"
	"fmt"

	"github.com/breatheroute/irceline/internal/airquality"
)

// ErrorKind classifies an APIError.
type ErrorKind int

const (
	// KindNetwork is a transport failure: DNS, connection, TLS or body read.
	KindNetwork ErrorKind = iota + 1
	// KindTimeout is a round trip that exceeded the per-call timeout.
	KindTimeout
	// KindStatus is a response with status 400 or above.
	KindStatus
	// KindCircuitOpen is a request short-circuited by an open breaker.
	KindCircuitOpen
	// KindInvalidParameter is a request rejected before being sent.
	KindInvalidParameter
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindCircuitOpen:
		return "circuit_open"
	case KindInvalidParameter:
		return "invalid_parameter"
	}
	return "unknown"
}

// APIError is returned by every client operation that fails. It matches
// airquality.ErrInvalidParameter for rejected parameters and
// airquality.ErrCommunication for everything else.
type APIError struct {
	Provider   string
	Op         string
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Provider + " " + e.Op
	switch e.Kind {
	case KindStatus:
		msg += fmt.Sprintf(": unexpected status %d", e.StatusCode)
	case KindTimeout:
		msg += ": timeout"
	case KindCircuitOpen:
		msg += ": provider unavailable"
	case KindInvalidParameter:
		msg += ": invalid parameter"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is maps the error onto the airquality sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case airquality.ErrInvalidParameter:
		return e.Kind == KindInvalidParameter
	case airquality.ErrCommunication:
		return e.Kind != KindInvalidParameter
	}
	return false
}

// Timeout reports whether the error is a per-call timeout.
func (e *APIError) Timeout() bool {
	return e.Kind == KindTimeout
}

func invalidParameter(provider, op string, format string, args ...any) error {
	return &APIError{
		Provider: provider,
		Op:       op,
		Kind:     KindInvalidParameter,
		Err:      fmt.Errorf(format, args...),
	}
}

// IsNotFound reports whether err is an APIError for a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindStatus && apiErr.StatusCode == 404
}
