package conversation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := New(channel.Phone)
	conv.CallSID = "CA123"
	conv.Metadata["caller"] = "+15550100"
	conv = conv.Append(
		UserMessage("hi, do you have any openings tomorrow?"),
		AssistantMessage("let me check"),
	)

	require.NoError(t, store.Save(ctx, conv))

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv, got)
}

func TestMemoryStoreGetMiss(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByCallID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByMessageID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIndexConsistency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := New(channel.Phone)
	conv.CallSID = "CA42"
	conv.MessageSID = "SM42"
	require.NoError(t, store.Save(ctx, conv))

	byCall, err := store.GetByCallID(ctx, "CA42")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, byCall.ID)

	byMessage, err := store.GetByMessageID(ctx, "SM42")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, byMessage.ID)

	require.NoError(t, store.Delete(ctx, conv.ID))

	_, err = store.GetByCallID(ctx, "CA42")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.GetByMessageID(ctx, "SM42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSaveRefreshesIndexes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := New(channel.SMS)
	conv.MessageSID = "SM1"
	require.NoError(t, store.Save(ctx, conv))

	// Re-save under a new correlation id; the old one must stop resolving.
	conv.MessageSID = "SM2"
	require.NoError(t, store.Save(ctx, conv))

	_, err := store.GetByMessageID(ctx, "SM1")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := store.GetByMessageID(ctx, "SM2")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestMemoryStoreUpdateSemantics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	ended := StatusEnded

	// Scenario: update before save fails, save then update succeeds.
	_, err := store.Update(ctx, "ghost", Update{Status: &ended})
	assert.ErrorIs(t, err, ErrNotFound)

	conv := New(channel.Email)
	conv.ID = "ghost"
	require.NoError(t, store.Save(ctx, conv))

	updated, err := store.Update(ctx, "ghost", Update{
		Status:         &ended,
		Metadata:       map[string]string{"reason": "resolved"},
		AppendMessages: []Message{AssistantMessage("thanks for writing in")},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusEnded, updated.Status)
	assert.Equal(t, "resolved", updated.Metadata["reason"])
	require.Len(t, updated.Messages, 1)

	persisted, err := store.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, updated, persisted)
}

func TestMemoryStoreCloneIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	conv := New(channel.Phone)
	conv = conv.Append(UserMessage("hello"))
	require.NoError(t, store.Save(ctx, conv))

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"
	got.Metadata["x"] = "y"

	fresh, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", fresh.Messages[0].Content)
	assert.NotContains(t, fresh.Metadata, "x")
}

func TestMemoryStoreListFilterThenLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		conv := New(channel.Phone)
		conv.ID = fmt.Sprintf("phone-%d", i)
		conv.StartedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Save(ctx, conv))
	}
	other := New(channel.SMS)
	other.StartedAt = base
	require.NoError(t, store.Save(ctx, other))

	got, err := store.List(ctx, Filter{Channel: channel.Phone, Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Filter applies before the limit, and results are ordered by start time.
	assert.Equal(t, "phone-0", got[0].ID)
	assert.Equal(t, "phone-1", got[1].ID)
	assert.Equal(t, "phone-2", got[2].ID)

	window, err := store.List(ctx, Filter{
		StartedAfter:  base.Add(90 * time.Second),
		StartedBefore: base.Add(4 * time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, window, 3)
}

func TestMemoryStoreConcurrentDistinctKeys(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv := New(channel.SMS)
			conv.ID = fmt.Sprintf("conv-%d", i)
			conv.MessageSID = fmt.Sprintf("SM-%d", i)
			assert.NoError(t, store.Save(ctx, conv))
			got, err := store.GetByMessageID(ctx, conv.MessageSID)
			assert.NoError(t, err)
			assert.Equal(t, conv.ID, got.ID)
		}(i)
	}
	wg.Wait()

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 32)
}
