// Package models defines the error taxonomy shared by IntentPipe components.
package models

import (
	"errors"
	"fmt"
)

// ConfigError marks a malformed rule or flow definition. It is fatal to the
// specific load or start attempt that hit it, never to the process.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Detail
}

// NewConfigError creates a ConfigError with the given detail.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}

// NotFoundError marks a lookup miss: unknown session key or an intent with no
// registered flow. It surfaces as a clear failure result, not a fault.
type NotFoundError struct {
	Kind string // "session", "flow", ...
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// CollaboratorError marks a failure in an external collaborator (classifier,
// resolver, notifier). Session state committed before the failing call is
// preserved; the error is converted to a failure result at the cascade
// boundary.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
