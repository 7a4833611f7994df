package provider

import (
	"context"
	"time"
)

// Event is a booking request handed to a calendar provider.
type Event struct {
	Title           string
	Start           time.Time
	DurationMinutes int
	Attendee        string
	Notes           string
}

// Calendar is the scheduling capability contract.
type Calendar interface {
	Provider

	// AvailableSlots returns the open start times on date for an appointment
	// of the given duration.
	AvailableSlots(ctx context.Context, date time.Time, durationMinutes int) ([]time.Time, error)

	// CreateEvent books the event and returns its id.
	CreateEvent(ctx context.Context, event Event) (string, error)
}
