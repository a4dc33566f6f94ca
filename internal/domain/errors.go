// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that the scheduler and adapters can return.
var (
	// ErrInvalidState is returned when an operation requiring a current track
	// is invoked with none selected. The UI layer is expected to prevent this.
	ErrInvalidState = errors.New("operation requires a selected track")

	// ErrTrackNotFound is returned when a requested track cannot be found in the catalog.
	ErrTrackNotFound = errors.New("track not found")

	// ErrPlaylistNotFound is returned when a requested playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrEmptyQueue is returned when the engine is asked to play with nothing queued.
	ErrEmptyQueue = errors.New("engine queue is empty")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileNotFound is returned when a file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrScanCancelled is returned when a library scan is canceled.
	ErrScanCancelled = errors.New("scan cancelled")
)

// AdapterError represents an error from the audio engine adapter.
// This wraps low-level playback errors with additional context.
type AdapterError struct {
	Op      string // Operation that failed (e.g., "enqueue", "play", "seek")
	Ref     string // Track reference (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("audio adapter %s failed for '%s': %s", e.Op, e.Ref, e.Message)
	}
	return fmt.Sprintf("audio adapter %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// NewAdapterError creates a new AdapterError.
func NewAdapterError(op, ref, message string, err error) *AdapterError {
	return &AdapterError{
		Op:      op,
		Ref:     ref,
		Message: message,
		Err:     err,
	}
}

// StoreError represents an error from the persistence layer.
type StoreError struct {
	Op      string // Operation that failed (e.g., "increment", "load")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, message string, err error) *StoreError {
	return &StoreError{
		Op:      op,
		Message: message,
		Err:     err,
	}
}
