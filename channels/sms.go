package channels

import (
	"context"
	"fmt"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/internal/executor"
	"github.com/casualjim/frontdesk/provider"
)

// InboundSMS is one inbound text message webhook.
type InboundSMS struct {
	MessageSID string
	From       string
	Body       string
}

// SMS answers and originates text messages.
type SMS struct {
	core
}

// NewSMS builds the SMS client.
func NewSMS(cfg Config) (*SMS, error) {
	if err := cfg.validate("sms"); err != nil {
		return nil, err
	}
	return &SMS{core: newCore(cfg)}, nil
}

// HandleInbound runs one exchange and texts the reply back to the sender.
// On a model failure nothing is sent and the error is returned; a half-baked
// text is worse than a late one.
func (s *SMS) HandleInbound(ctx context.Context, in InboundSMS) (string, error) {
	release := s.acquire(in.MessageSID)
	defer release()

	conv, err := s.resolve(ctx, channel.SMS,
		func(ctx context.Context) (conversation.Conversation, error) {
			return s.store.GetByMessageID(ctx, in.MessageSID)
		},
		func(c *conversation.Conversation) {
			c.MessageSID = in.MessageSID
			c.Metadata["from"] = in.From
		},
	)
	if err != nil {
		return "", err
	}

	if reply, ok := s.replayed(in.MessageSID, in.Body); ok {
		return reply, nil
	}

	resp, err := s.runTurn(ctx, executor.TurnRequest{
		ConversationID: conv.ID,
		Channel:        channel.SMS,
		Input:          in.Body,
		Sender:         in.From,
	})
	if err != nil {
		return "", err
	}

	reply := textReply(resp)
	if _, err := s.comm.SendSMS(ctx, in.From, reply, provider.MessageOpts{}); err != nil {
		return "", fmt.Errorf("send sms to %s: %w", in.From, err)
	}
	s.remember(in.MessageSID, in.Body, reply)
	return reply, nil
}

// Send originates an outbound text and opens the conversation keyed by the
// new message SID, with the sent text as the opening assistant message.
func (s *SMS) Send(ctx context.Context, to, body string) (conversation.Conversation, error) {
	messageSID, err := s.comm.SendSMS(ctx, to, body, provider.MessageOpts{})
	if err != nil {
		return conversation.Conversation{}, err
	}

	conv := conversation.New(channel.SMS)
	conv.MessageSID = messageSID
	conv.Metadata["to"] = to
	conv = conv.Append(conversation.AssistantMessage(body))
	if err := s.store.Save(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// Close marks the conversation ended.
func (s *SMS) Close(ctx context.Context, conversationID string) error {
	return s.end(ctx, conversationID)
}

func textReply(resp executor.TurnResponse) string {
	if resp.Response.Message != "" {
		return resp.Response.Message
	}
	if resp.Response.Text != "" {
		return resp.Response.Text
	}
	return resp.Content
}
