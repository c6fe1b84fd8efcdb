package driver

import (
	"errors"
	"fmt"

	"github.com/benchkv/benchkv/pkg/dbcaps"
)

// Standard contract errors
var (
	// ErrConnectionFailed is returned when a connection attempt fails
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidConfiguration is returned when the configuration is invalid
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDriverNotFound is returned when a driver is not registered
	ErrDriverNotFound = errors.New("driver not found")

	// ErrClientClosed is returned by Init on a client that has already been
	// cleaned up or whose first Init failed
	ErrClientClosed = errors.New("client is closed")
)

// BackendError wraps a backend-native failure with driver context. It is
// caught at the operation boundary, logged, and converted to StatusError —
// it never escapes a CRUD method.
type BackendError struct {
	Driver dbcaps.DatabaseID
	Op     string
	Cause  error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Driver, e.Op, e.Cause)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Cause
}

// NewBackendError creates a new BackendError.
func NewBackendError(id dbcaps.DatabaseID, op string, cause error) *BackendError {
	return &BackendError{Driver: id, Op: op, Cause: cause}
}

// WrapError wraps an error with driver context. If the error is already a
// BackendError, it is returned as-is.
func WrapError(id dbcaps.DatabaseID, op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return NewBackendError(id, op, err)
}

// ConnectionError is returned from Init when the backend cannot be reached.
type ConnectionError struct {
	Driver dbcaps.DatabaseID
	Addr   string
	Cause  error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s at %s: %v", e.Driver, e.Addr, e.Cause)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrConnectionFailed.
func (e *ConnectionError) Is(target error) bool {
	if errors.Is(target, ErrConnectionFailed) {
		return true
	}
	return errors.Is(e.Cause, target)
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(id dbcaps.DatabaseID, addr string, cause error) *ConnectionError {
	return &ConnectionError{Driver: id, Addr: addr, Cause: cause}
}

// ConfigError is returned from Open or Init when connection parameters are
// invalid or unparseable. This is the one error class allowed to abort
// client construction entirely.
type ConfigError struct {
	Driver dbcaps.DatabaseID
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration for %s: field '%s': %s", e.Driver, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for %s: %s", e.Driver, e.Reason)
}

// Is checks if the error is ErrInvalidConfiguration.
func (e *ConfigError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfiguration)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(id dbcaps.DatabaseID, field, reason string) *ConfigError {
	return &ConfigError{Driver: id, Field: field, Reason: reason}
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}
