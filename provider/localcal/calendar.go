// Package localcal is an in-memory calendar provider. It generates slots
// from a configurable business-hours window and tracks bookings itself, so
// appointment flows work end to end without a scheduling backend.
package localcal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/casualjim/frontdesk/pkg/uuidx"
	"github.com/casualjim/frontdesk/provider"
	"github.com/fogfish/opts"
)

// Hours is the daily booking window. Slots start every SlotMinutes from
// Open and must end by Close.
type Hours struct {
	Open        int // hour of day, inclusive
	Close       int // hour of day, exclusive
	SlotMinutes int
}

var (
	// Open sets the opening hour.
	Open = opts.FMap(func(p *Provider, h int) error {
		p.hours.Open = h
		return nil
	})
	// Close sets the closing hour.
	Close = opts.FMap(func(p *Provider, h int) error {
		p.hours.Close = h
		return nil
	})
	// SlotMinutes sets the slot granularity.
	SlotMinutes = opts.FMap(func(p *Provider, m int) error {
		p.hours.SlotMinutes = m
		return nil
	})
)

// Provider keeps bookings in memory.
type Provider struct {
	provider.Lifecycle

	hours Hours

	mu     sync.Mutex
	events map[string]provider.Event
}

var _ provider.Calendar = (*Provider)(nil)

// New returns a calendar open 9 to 5 with 30 minute slots unless options
// say otherwise.
func New(options ...opts.Option[Provider]) (*Provider, error) {
	p := &Provider{hours: Hours{Open: 9, Close: 17, SlotMinutes: 30}}
	if err := opts.Apply(p, options); err != nil {
		return nil, err
	}
	if p.hours.Open >= p.hours.Close {
		return nil, fmt.Errorf("localcal: opening hour %d is not before closing hour %d", p.hours.Open, p.hours.Close)
	}
	if p.hours.SlotMinutes <= 0 {
		return nil, fmt.Errorf("localcal: slot granularity must be positive, got %d", p.hours.SlotMinutes)
	}
	return p, nil
}

func (p *Provider) Name() string        { return "localcal" }
func (p *Provider) Kind() provider.Kind { return provider.KindCalendar }

func (p *Provider) Initialize(_ context.Context) error {
	if !p.TransitionReady() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = make(map[string]provider.Event)
	return nil
}

func (p *Provider) HealthCheck(_ context.Context) bool {
	return p.Ready()
}

func (p *Provider) Dispose(_ context.Context) error {
	p.TransitionDisposed()
	return nil
}

// AvailableSlots returns every start time on date where an appointment of
// the given duration fits inside business hours and does not overlap an
// existing booking.
func (p *Provider) AvailableSlots(_ context.Context, date time.Time, durationMinutes int) ([]time.Time, error) {
	if err := p.Guard(p.Name()); err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("localcal: duration must be positive, got %d", durationMinutes)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	open := time.Date(date.Year(), date.Month(), date.Day(), p.hours.Open, 0, 0, 0, date.Location())
	closing := time.Date(date.Year(), date.Month(), date.Day(), p.hours.Close, 0, 0, 0, date.Location())
	step := time.Duration(p.hours.SlotMinutes) * time.Minute
	span := time.Duration(durationMinutes) * time.Minute

	var slots []time.Time
	for start := open; !start.Add(span).After(closing); start = start.Add(step) {
		if p.overlapsLocked(start, span) {
			continue
		}
		slots = append(slots, start)
	}
	return slots, nil
}

// CreateEvent books the event when its window is free and inside business
// hours. The returned id is unique per booking.
func (p *Provider) CreateEvent(_ context.Context, event provider.Event) (string, error) {
	if err := p.Guard(p.Name()); err != nil {
		return "", err
	}
	if event.DurationMinutes <= 0 {
		return "", fmt.Errorf("localcal: duration must be positive, got %d", event.DurationMinutes)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	start := event.Start
	span := time.Duration(event.DurationMinutes) * time.Minute
	open := time.Date(start.Year(), start.Month(), start.Day(), p.hours.Open, 0, 0, 0, start.Location())
	closing := time.Date(start.Year(), start.Month(), start.Day(), p.hours.Close, 0, 0, 0, start.Location())
	if start.Before(open) || start.Add(span).After(closing) {
		return "", fmt.Errorf("localcal: %s is outside business hours", start.Format(time.Kitchen))
	}
	if p.overlapsLocked(start, span) {
		return "", fmt.Errorf("localcal: %s is already booked", start.Format(time.Kitchen))
	}

	id := uuidx.NewString()
	p.events[id] = event
	return id, nil
}

// Event returns a booked event by id.
func (p *Provider) Event(id string) (provider.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event, ok := p.events[id]
	return event, ok
}

func (p *Provider) overlapsLocked(start time.Time, span time.Duration) bool {
	end := start.Add(span)
	for _, booked := range p.events {
		bookedEnd := booked.Start.Add(time.Duration(booked.DurationMinutes) * time.Minute)
		if start.Before(bookedEnd) && booked.Start.Before(end) {
			return true
		}
	}
	return false
}
