package frontdesk

import (
	"context"
	"log/slog"

	"github.com/casualjim/frontdesk/broker"
	"github.com/casualjim/frontdesk/events"
	"github.com/casualjim/frontdesk/pkg/slogx"
)

// joinHooks fans one event out to several hooks. Nil entries are skipped.
func joinHooks(hooks ...events.Hook) events.Hook {
	var active []events.Hook
	for _, h := range hooks {
		if h != nil {
			active = append(active, h)
		}
	}
	if len(active) == 1 {
		return active[0]
	}
	return multiHook(active)
}

type multiHook []events.Hook

func (m multiHook) OnToolExecute(ctx context.Context, event events.ToolInvoked) {
	for _, h := range m {
		h.OnToolExecute(ctx, event)
	}
}

func (m multiHook) OnToolError(ctx context.Context, event events.ToolFailed) {
	for _, h := range m {
		h.OnToolError(ctx, event)
	}
}

func (m multiHook) OnAssistantMessage(ctx context.Context, event events.AssistantReply) {
	for _, h := range m {
		h.OnAssistantMessage(ctx, event)
	}
}

func (m multiHook) OnError(ctx context.Context, event events.Error) {
	for _, h := range m {
		h.OnError(ctx, event)
	}
}

// brokerHook publishes every run event on a per-conversation topic.
type brokerHook struct {
	brk broker.Broker
}

func (b brokerHook) OnToolExecute(ctx context.Context, event events.ToolInvoked) {
	b.publish(ctx, event.ConversationID, event)
}

func (b brokerHook) OnToolError(ctx context.Context, event events.ToolFailed) {
	b.publish(ctx, event.ConversationID, event)
}

func (b brokerHook) OnAssistantMessage(ctx context.Context, event events.AssistantReply) {
	b.publish(ctx, event.ConversationID, event)
}

func (b brokerHook) OnError(ctx context.Context, event events.Error) {
	b.publish(ctx, event.ConversationID, event)
}

func (b brokerHook) publish(ctx context.Context, conversationID string, event events.Event) {
	if err := b.brk.Topic(ctx, conversationID).Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish run event",
			slogx.Conversation(conversationID),
			slogx.Error(err),
		)
	}
}
