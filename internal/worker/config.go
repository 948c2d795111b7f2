// Package worker triggers bot runs from Pub/Sub messages, typically
// published by Cloud Scheduler.
package worker

import (
	"time"
)

// Job types carried in trigger messages.
const (
	// JobSunsetCheck runs the notification pipeline once.
	JobSunsetCheck = "sunset_check"

	// JobHealthCheck verifies no upstream circuit breaker is open.
	JobHealthCheck = "health_check"
)

// ReceiveConfig controls Pub/Sub flow.
type ReceiveConfig struct {
	// MaxOutstandingMessages caps messages handled at once.
	// Default: 1, runs are serialised anyway.
	MaxOutstandingMessages int

	// MaxExtension is how long a message's ack deadline is extended.
	// Default: 5 minutes
	MaxExtension time.Duration
}

// DefaultReceiveConfig returns the default receive settings.
func DefaultReceiveConfig() ReceiveConfig {
	return ReceiveConfig{
		MaxOutstandingMessages: 1,
		MaxExtension:           5 * time.Minute,
	}
}
