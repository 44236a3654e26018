package webhook

import "errors"

// Domain errors for the webhook package.
var (
	// ErrEmptyEvent is returned when the event name is empty.
	ErrEmptyEvent = errors.New("webhook: event name cannot be empty")

	// ErrEmptyKey is returned when no usable key remains after normalisation.
	ErrEmptyKey = errors.New("webhook: key cannot be empty")

	// ErrRequestFailed is returned when the HTTP call fails or IFTTT
	// answers with an error status.
	ErrRequestFailed = errors.New("webhook: request failed")

	// ErrClosed is returned by Close when called more than once.
	ErrClosed = errors.New("webhook: client closed")
)
