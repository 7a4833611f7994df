package broker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/events"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNATS(t *testing.T) *nats.Conn {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping NATS broker tests")
	}
	nc, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNATSTopicIsStablePerID(t *testing.T) {
	nc := setupNATS(t)
	ctx := context.Background()
	b := NATS(nc)

	assert.Same(t, b.Topic(ctx, "a"), b.Topic(ctx, "a"))
	assert.NotSame(t, b.Topic(ctx, "a"), b.Topic(ctx, "b"))
}

func TestNATSPublishReachesSubscriber(t *testing.T) {
	nc := setupNATS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	top := NATS(nc).Topic(ctx, "conv-nats-1")
	hook := newCollectingHook(2)

	sub, err := top.Subscribe(ctx, hook)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	reply := events.AssistantReply{
		RunID:          uuid.New(),
		ConversationID: "conv-nats-1",
		Channel:        channel.SMS,
		Content:        "hello over the wire",
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}
	require.NoError(t, top.Publish(ctx, reply))
	require.NoError(t, top.Publish(ctx, events.ToolFailed{
		RunID:          uuid.New(),
		ConversationID: "conv-nats-1",
		Channel:        channel.SMS,
		Tool:           "book_appointment",
		Err:            "slot taken",
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}))

	hook.wait(t)

	hook.mu.Lock()
	defer hook.mu.Unlock()
	require.Len(t, hook.replies, 1)
	assert.Equal(t, reply.RunID, hook.replies[0].RunID)
	assert.Equal(t, "hello over the wire", hook.replies[0].Content)
	require.Len(t, hook.failed, 1)
	assert.Equal(t, "book_appointment", hook.failed[0].Tool)
}

func TestNATSSubscribeRequiresHook(t *testing.T) {
	nc := setupNATS(t)
	top := NATS(nc).Topic(context.Background(), "conv-nats-2")

	_, err := top.Subscribe(context.Background(), nil)
	require.Error(t, err)
}

func TestNATSUnsubscribeStopsDelivery(t *testing.T) {
	nc := setupNATS(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	top := NATS(nc).Topic(ctx, "conv-nats-3")
	hook := newCollectingHook(1)

	sub, err := top.Subscribe(ctx, hook)
	require.NoError(t, err)

	require.NoError(t, top.Publish(ctx, events.AssistantReply{
		RunID:          uuid.New(),
		ConversationID: "conv-nats-3",
		Channel:        channel.Phone,
		Content:        "first",
		Timestamp:      strfmt.DateTime(time.Now().UTC()),
	}))
	hook.wait(t)

	sub.Unsubscribe()
	require.NoError(t, top.Publish(ctx, events.AssistantReply{
		RunID:          uuid.New(),
		ConversationID: "conv-nats-3",
		Channel:        channel.Phone,
		Content:        "second",
		Timestamp:      strfmt.DateTime(time.Now().UTC()),
	}))

	time.Sleep(100 * time.Millisecond)
	hook.mu.Lock()
	defer hook.mu.Unlock()
	assert.Len(t, hook.replies, 1)
}
