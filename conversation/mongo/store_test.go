package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/pkg/uuidx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requires a running MongoDB; skipped unless MONGODB_URI is set.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	store, client, err := Connect(ctx, uri, "frontdesk_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestStoreSaveGetDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	conv := conversation.New(channel.Phone)
	conv.CallSID = "CA-" + uuidx.NewString()
	conv = conv.Append(conversation.UserMessage("hello"))
	require.NoError(t, store.Save(ctx, conv))

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, conv.CallSID, got.CallSID)
	require.Len(t, got.Messages, 1)

	byCall, err := store.GetByCallID(ctx, conv.CallSID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, byCall.ID)

	require.NoError(t, store.Delete(ctx, conv.ID))
	_, err = store.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
	_, err = store.GetByCallID(ctx, conv.CallSID)
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestStoreUpdateMissing(t *testing.T) {
	store := testStore(t)
	ended := conversation.StatusEnded

	_, err := store.Update(context.Background(), "missing-"+uuidx.NewString(), conversation.Update{Status: &ended})
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestStoreUpdateAppends(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	conv := conversation.New(channel.SMS)
	conv.MessageSID = "SM-" + uuidx.NewString()
	require.NoError(t, store.Save(ctx, conv))
	t.Cleanup(func() { _ = store.Delete(ctx, conv.ID) })

	updated, err := store.Update(ctx, conv.ID, conversation.Update{
		AppendMessages: []conversation.Message{conversation.AssistantMessage("got it")},
		Metadata:       map[string]string{"handled_by": "frontdesk"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Messages, 1)
	assert.Equal(t, "frontdesk", updated.Metadata["handled_by"])
}
