package events

import (
	"context"
	"sync"
	"testing"

	"github.com/casualjim/frontdesk/channel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	mu        sync.Mutex
	invoked   []ToolInvoked
	failed    []ToolFailed
	replies   []AssistantReply
	errors    []Error
	panicking bool
}

func (h *recordingHook) OnToolExecute(_ context.Context, event ToolInvoked) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicking {
		panic("observer bug")
	}
	h.invoked = append(h.invoked, event)
}

func (h *recordingHook) OnToolError(_ context.Context, event ToolFailed) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicking {
		panic("observer bug")
	}
	h.failed = append(h.failed, event)
}

func (h *recordingHook) OnAssistantMessage(_ context.Context, event AssistantReply) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicking {
		panic("observer bug")
	}
	h.replies = append(h.replies, event)
}

func (h *recordingHook) OnError(_ context.Context, event Error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicking {
		panic("observer bug")
	}
	h.errors = append(h.errors, event)
}

func TestGuardDelegates(t *testing.T) {
	inner := &recordingHook{}
	hook := Guard(inner)
	ctx := context.Background()

	event := ToolInvoked{RunID: uuid.New(), ConversationID: "c", Channel: channel.Phone, Tool: "t"}
	hook.OnToolExecute(ctx, event)
	hook.OnToolError(ctx, ToolFailed{Tool: "t", Err: "boom"})
	hook.OnAssistantMessage(ctx, AssistantReply{Content: "hi"})
	hook.OnError(ctx, Error{Err: "fatal"})

	require.Len(t, inner.invoked, 1)
	assert.Equal(t, event, inner.invoked[0])
	assert.Len(t, inner.failed, 1)
	assert.Len(t, inner.replies, 1)
	assert.Len(t, inner.errors, 1)
}

func TestGuardSwallowsPanics(t *testing.T) {
	inner := &recordingHook{panicking: true}
	hook := Guard(inner)
	ctx := context.Background()

	require.NotPanics(t, func() {
		hook.OnToolExecute(ctx, ToolInvoked{})
		hook.OnToolError(ctx, ToolFailed{})
		hook.OnAssistantMessage(ctx, AssistantReply{})
		hook.OnError(ctx, Error{})
	})
}

func TestGuardNilBecomesNoop(t *testing.T) {
	hook := Guard(nil)

	require.NotPanics(t, func() {
		hook.OnAssistantMessage(context.Background(), AssistantReply{Content: "hi"})
	})
	assert.IsType(t, NoopHook{}, hook)
}

func TestGuardIdempotent(t *testing.T) {
	inner := &recordingHook{}
	once := Guard(inner)
	twice := Guard(once)

	assert.Equal(t, once, twice)
}
