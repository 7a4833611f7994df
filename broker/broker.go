// Package broker fans run events out to interested hooks. The local broker
// keeps everything in process; the NATS broker puts the same events on a
// subject so observers in other processes see them too.
package broker

import (
	"context"

	"github.com/casualjim/frontdesk/events"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

func dispatch(ctx context.Context, hook events.Hook, event events.Event) {
	switch event := event.(type) {
	case events.ToolInvoked:
		hook.OnToolExecute(ctx, event)
	case events.ToolFailed:
		hook.OnToolError(ctx, event)
	case events.AssistantReply:
		hook.OnAssistantMessage(ctx, event)
	case events.Error:
		hook.OnError(ctx, event)
	}
}
