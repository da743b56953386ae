package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a gateway call failed.
type Kind string

const (
	KindNetworkUnreachable Kind = "network_unreachable"
	KindServiceRejected    Kind = "service_rejected"
	KindMalformedResponse  Kind = "malformed_response"
	KindUserAborted        Kind = "user_aborted"
	// KindInvalidUpload means the file was refused locally; no request was sent.
	KindInvalidUpload Kind = "invalid_upload"
)

// ServiceError is returned by every failing Client operation.
type ServiceError struct {
	Op         string
	Kind       Kind
	StatusCode int    // set for KindServiceRejected
	Message    string // service-provided reason, when there is one
	Err        error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ErrorKind exposes the kind to diagnostic sinks without importing this package.
func (e *ServiceError) ErrorKind() string { return string(e.Kind) }

// KindOf returns the Kind carried by err, or "" when err is not a ServiceError.
func KindOf(err error) Kind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
