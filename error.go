package windowz

import (
	"errors"
	"fmt"
	"time"
)

// Lifecycle errors returned by window operations.
var (
	// ErrNotStarted is returned by operations invoked before Start.
	ErrNotStarted = errors.New("window not started")

	// ErrAlreadyStarted is returned by Start when the window is running.
	ErrAlreadyStarted = errors.New("window already started")

	// ErrClosed is returned by operations invoked after Stop.
	ErrClosed = errors.New("window closed")
)

// ConfigError reports an invalid window configuration detected by Start.
// The window does not start; no timer is armed.
type ConfigError struct {
	Option string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("windowz: invalid %s: %s", e.Option, e.Reason)
}

// CallbackError represents a panic raised by an update or expire callback.
// It captures both the item the callback was processing and the recovered
// panic value, enabling better debugging and supervision decisions.
//
// A callback panic terminates the window: the sweep or arrival that
// triggered it commits nothing, and every subsequent operation returns the
// same CallbackError rather than a bare ErrClosed.
//
//nolint:govet // fieldalignment: struct layout optimized for readability over memory
type CallbackError[T any] struct {
	// Item is the item the callback was processing when it panicked.
	Item T

	// Err wraps the recovered panic value.
	Err error

	// Callback identifies which callback panicked: "update" or "expire".
	Callback string

	// Timestamp records when the panic was recovered.
	Timestamp time.Time
}

// NewCallbackError creates a new CallbackError with the current timestamp.
func NewCallbackError[T any](item T, err error, callback string) *CallbackError[T] {
	return &CallbackError[T]{
		Item:      item,
		Err:       err,
		Callback:  callback,
		Timestamp: time.Now(),
	}
}

// String returns a human-readable representation of the error.
func (e *CallbackError[T]) String() string {
	return fmt.Sprintf("CallbackError[%s]: %v (item: %v, time: %s)",
		e.Callback, e.Err, e.Item, e.Timestamp.Format(time.RFC3339))
}

// Unwrap returns the underlying error, enabling error wrapping chains.
func (e *CallbackError[T]) Unwrap() error {
	return e.Err
}

// Error implements the error interface.
func (e *CallbackError[T]) Error() string {
	return e.String()
}
