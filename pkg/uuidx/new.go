package uuidx

import "github.com/google/uuid"

// New returns a fresh UUIDv7. V7 ids sort by creation time, which keeps
// conversation and run identifiers naturally ordered in stores and logs.
// It panics when the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh UUIDv7 rendered as a string.
func NewString() string {
	return New().String()
}
