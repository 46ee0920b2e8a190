package router

import (
	"errors"
	"fmt"
)

// ErrPoolExhausted reports that a dispatch walked every eligible model
// without obtaining a reply.
var ErrPoolExhausted = errors.New("model pool exhausted")

// FailureKind classifies one failed attempt against one backend model.
type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureTimeout   FailureKind = "timeout"
	FailureStatus    FailureKind = "status"
	FailureMalformed FailureKind = "malformed"
	FailureEmpty     FailureKind = "empty_reply"
	FailureAuth      FailureKind = "auth"
)

// BackendError describes a single failed completion attempt. The dispatcher
// inspects Kind to decide between moving to the next candidate and aborting
// the walk.
type BackendError struct {
	Model  string
	Kind   FailureKind
	Status int
	Err    error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	msg := fmt.Sprintf("model %s: %s", e.Model, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the walk may continue with the next candidate.
// Auth rejections abort it: the shared key fails the same way on every model.
func (e *BackendError) Retryable() bool {
	return e.Kind != FailureAuth
}
