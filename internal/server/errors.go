package server

import "errors"

var (
	// ErrHubStopped is returned when a request reaches a hub that has shut down.
	ErrHubStopped = errors.New("hub stopped")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid configuration")
)
