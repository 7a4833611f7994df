package conversation

import (
	"context"
	"sort"
	"sync"

	"github.com/alphadose/haxmap"
)

// MemoryStore is the in-process Store used as the default and in tests.
// Conversations live in a sharded concurrent map so distinct ids never
// contend; the mutex only guards multi-map invariants (record + both
// secondary indexes moving together).
type MemoryStore struct {
	conversations *haxmap.Map[string, Conversation]
	byCallSID     *haxmap.Map[string, string]
	byMessageSID  *haxmap.Map[string, string]
	mu            sync.Mutex
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: haxmap.New[string, Conversation](),
		byCallSID:     haxmap.New[string, string](),
		byMessageSID:  haxmap.New[string, string](),
	}
}

// Save upserts the conversation and refreshes both correlation indexes.
func (s *MemoryStore) Save(_ context.Context, conv Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.conversations.Get(conv.ID); ok {
		s.dropIndexes(prev)
	}
	s.conversations.Set(conv.ID, conv.Clone())
	s.addIndexes(conv)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Conversation, error) {
	conv, ok := s.conversations.Get(id)
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return conv.Clone(), nil
}

func (s *MemoryStore) GetByCallID(ctx context.Context, callSID string) (Conversation, error) {
	id, ok := s.byCallSID.Get(callSID)
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *MemoryStore) GetByMessageID(ctx context.Context, messageSID string) (Conversation, error) {
	id, ok := s.byMessageSID.Get(messageSID)
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Update applies the partial update to an existing conversation. Unlike Save
// it fails with ErrNotFound when the id was never saved.
func (s *MemoryStore) Update(_ context.Context, id string, update Update) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.conversations.Get(id)
	if !ok {
		return Conversation{}, ErrNotFound
	}

	next := applyUpdate(prev.Clone(), update)
	s.dropIndexes(prev)
	s.conversations.Set(id, next)
	s.addIndexes(next)
	return next.Clone(), nil
}

// Delete removes the conversation and both of its index entries.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.conversations.Get(id)
	if !ok {
		return ErrNotFound
	}
	s.dropIndexes(prev)
	s.conversations.Del(id)
	return nil
}

// List filters first, then truncates to filter.Limit. Results come back
// ordered by start time (ties broken by id) because map iteration order
// would otherwise make a limited listing nondeterministic.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Conversation, error) {
	var matched []Conversation
	s.conversations.ForEach(func(_ string, conv Conversation) bool {
		if filter.Matches(conv) {
			matched = append(matched, conv.Clone())
		}
		return true
	})

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].StartedAt.Equal(matched[j].StartedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].StartedAt.Before(matched[j].StartedAt)
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) addIndexes(conv Conversation) {
	if conv.CallSID != "" {
		s.byCallSID.Set(conv.CallSID, conv.ID)
	}
	if conv.MessageSID != "" {
		s.byMessageSID.Set(conv.MessageSID, conv.ID)
	}
}

func (s *MemoryStore) dropIndexes(conv Conversation) {
	if conv.CallSID != "" {
		s.byCallSID.Del(conv.CallSID)
	}
	if conv.MessageSID != "" {
		s.byMessageSID.Del(conv.MessageSID)
	}
}
