package localcal

import (
	"context"
	"testing"
	"time"

	"github.com/casualjim/frontdesk/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCalendar(t *testing.T) *Provider {
	t.Helper()
	p, err := New()
	require.NoError(t, err)
	require.NoError(t, p.Initialize(context.Background()))
	return p
}

func TestNewValidatesHours(t *testing.T) {
	_, err := New(Open(18), Close(9))
	require.Error(t, err)

	_, err = New(SlotMinutes(0))
	require.Error(t, err)
}

func TestAvailableSlotsWithinBusinessHours(t *testing.T) {
	p := mustCalendar(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	slots, err := p.AvailableSlots(context.Background(), day, 30)
	require.NoError(t, err)

	// 9:00 through 16:30 at half hour granularity.
	require.Len(t, slots, 16)
	assert.Equal(t, 9, slots[0].Hour())
	last := slots[len(slots)-1]
	assert.Equal(t, 16, last.Hour())
	assert.Equal(t, 30, last.Minute())
}

func TestBookingRemovesSlot(t *testing.T) {
	p := mustCalendar(t)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	ten := day.Add(10 * time.Hour)

	id, err := p.CreateEvent(context.Background(), provider.Event{
		Title:           "consultation",
		Start:           ten,
		DurationMinutes: 60,
		Attendee:        "Dana",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	event, ok := p.Event(id)
	require.True(t, ok)
	assert.Equal(t, "consultation", event.Title)

	slots, err := p.AvailableSlots(context.Background(), day, 30)
	require.NoError(t, err)
	for _, slot := range slots {
		assert.False(t, slot.Equal(ten), "booked slot still offered")
		assert.False(t, slot.Equal(ten.Add(30*time.Minute)), "overlapping slot still offered")
	}
}

func TestCreateEventConflicts(t *testing.T) {
	p := mustCalendar(t)
	ten := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := p.CreateEvent(context.Background(), provider.Event{Title: "first", Start: ten, DurationMinutes: 60})
	require.NoError(t, err)

	_, err = p.CreateEvent(context.Background(), provider.Event{Title: "overlap", Start: ten.Add(30 * time.Minute), DurationMinutes: 30})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already booked")

	_, err = p.CreateEvent(context.Background(), provider.Event{Title: "after", Start: ten.Add(time.Hour), DurationMinutes: 30})
	require.NoError(t, err)
}

func TestCreateEventOutsideHours(t *testing.T) {
	p := mustCalendar(t)

	_, err := p.CreateEvent(context.Background(), provider.Event{
		Title:           "too early",
		Start:           time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
		DurationMinutes: 30,
	})
	require.Error(t, err)

	_, err = p.CreateEvent(context.Background(), provider.Event{
		Title:           "runs past close",
		Start:           time.Date(2026, 3, 2, 16, 45, 0, 0, time.UTC),
		DurationMinutes: 30,
	})
	require.Error(t, err)
}

func TestGuardBeforeInitialize(t *testing.T) {
	p, err := New()
	require.NoError(t, err)

	_, err = p.AvailableSlots(context.Background(), time.Now(), 30)
	require.ErrorIs(t, err, provider.ErrUninitialized)
	assert.False(t, p.HealthCheck(context.Background()))
}
