package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/casualjim/frontdesk/channel"
)

// ErrNotFound is returned when a conversation id or correlation id has no
// stored conversation. It is a distinct sentinel so callers can tell a miss
// apart from a transport failure in durable stores.
var ErrNotFound = errors.New("conversation not found")

// Update carries the partial fields applied by Store.Update. Nil pointers
// leave the corresponding field untouched; Metadata entries are merged over
// the existing map; AppendMessages extends the transcript.
type Update struct {
	Status         *Status
	CallSID        *string
	MessageSID     *string
	Metadata       map[string]string
	AppendMessages []Message
}

// Filter narrows Store.List results. Zero values match everything. Filters
// apply before Limit truncates, so a small limit over a large match set is
// deterministic.
type Filter struct {
	Channel       channel.Channel
	Status        Status
	StartedAfter  time.Time
	StartedBefore time.Time
	Limit         int
}

// Matches reports whether c passes every set predicate of the filter.
func (f Filter) Matches(c Conversation) bool {
	if f.Channel != "" && c.Channel != f.Channel {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if !f.StartedAfter.IsZero() && c.StartedAt.Before(f.StartedAfter) {
		return false
	}
	if !f.StartedBefore.IsZero() && c.StartedAt.After(f.StartedBefore) {
		return false
	}
	return true
}

// Store owns conversation persistence. Implementations must keep the call-SID
// and message-SID indexes consistent with the primary record on every Save
// and Delete, and must support concurrent access across distinct ids.
//
// Save upserts and never fails on an existing id; Update fails with
// ErrNotFound when the id was never saved. Lookups return ErrNotFound on a
// miss and never panic.
type Store interface {
	Save(ctx context.Context, conv Conversation) error
	Get(ctx context.Context, id string) (Conversation, error)
	GetByCallID(ctx context.Context, callSID string) (Conversation, error)
	GetByMessageID(ctx context.Context, messageSID string) (Conversation, error)
	Update(ctx context.Context, id string, update Update) (Conversation, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]Conversation, error)
}

func applyUpdate(c Conversation, update Update) Conversation {
	if update.Status != nil {
		c.Status = *update.Status
	}
	if update.CallSID != nil {
		c.CallSID = *update.CallSID
	}
	if update.MessageSID != nil {
		c.MessageSID = *update.MessageSID
	}
	if len(update.Metadata) > 0 {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string, len(update.Metadata))
		}
		for k, v := range update.Metadata {
			c.Metadata[k] = v
		}
	}
	if len(update.AppendMessages) > 0 {
		c = c.Append(update.AppendMessages...)
	}
	return c
}
