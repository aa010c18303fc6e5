package idempotency

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ClientFaultError is an explicit 4xx-shaped failure raised by tool work.
// These are the only errors persisted as failed_permanent; anything else is
// treated as an infrastructure fault and left retryable.
type ClientFaultError struct {
	Status  int
	Message string
	Detail  json.RawMessage
}

func (e *ClientFaultError) Error() string {
	return e.Message
}

// ClientFault marks the error as a client fault for classification.
func (e *ClientFaultError) ClientFault() bool { return true }

type clientFaulter interface {
	ClientFault() bool
}

// IsClientFault reports whether err (or anything it wraps) is an explicit
// client-fault error.
func IsClientFault(err error) bool {
	var cf clientFaulter
	return errors.As(err, &cf) && cf.ClientFault()
}

// ConflictError is returned when a caller reuses an idempotency key with a
// canonically different payload. The stored result still reflects the first
// request; the work is never executed for the conflicting one.
type ConflictError struct {
	Tool string
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("idempotency key conflict for %s: request does not match the original request for key %q", e.Tool, e.Key)
}

// ReplayedFailure re-surfaces a prior attempt's permanent failure with its
// original status and message.
type ReplayedFailure struct {
	Status  int
	Message string
	Detail  json.RawMessage
}

func (e *ReplayedFailure) Error() string {
	return e.Message
}
