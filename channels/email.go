package channels

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/internal/executor"
)

// InboundEmail is one inbound email event.
type InboundEmail struct {
	MessageID string
	From      string
	Subject   string
	Body      string
}

// Email answers and originates email.
type Email struct {
	core
}

// NewEmail builds the email client.
func NewEmail(cfg Config) (*Email, error) {
	if err := cfg.validate("email"); err != nil {
		return nil, err
	}
	return &Email{core: newCore(cfg)}, nil
}

// HandleInbound runs one exchange and mails the reply to the sender. On a
// model failure nothing is sent and the error is returned.
func (e *Email) HandleInbound(ctx context.Context, in InboundEmail) (string, error) {
	release := e.acquire(in.MessageID)
	defer release()

	conv, err := e.resolve(ctx, channel.Email,
		func(ctx context.Context) (conversation.Conversation, error) {
			return e.store.GetByMessageID(ctx, in.MessageID)
		},
		func(c *conversation.Conversation) {
			c.MessageSID = in.MessageID
			c.Metadata["from"] = in.From
			c.Metadata["subject"] = in.Subject
		},
	)
	if err != nil {
		return "", err
	}

	if reply, ok := e.replayed(in.MessageID, in.Body); ok {
		return reply, nil
	}

	resp, err := e.runTurn(ctx, executor.TurnRequest{
		ConversationID: conv.ID,
		Channel:        channel.Email,
		Input:          in.Body,
		Sender:         in.From,
	})
	if err != nil {
		return "", err
	}

	html, text := emailReply(resp)
	if err := e.comm.SendEmail(ctx, in.From, replySubject(in.Subject), html, text); err != nil {
		return "", fmt.Errorf("send email to %s: %w", in.From, err)
	}
	e.remember(in.MessageID, in.Body, text)
	return text, nil
}

// Send originates an outbound email and opens its conversation.
func (e *Email) Send(ctx context.Context, to, subject, html, text string) (conversation.Conversation, error) {
	if err := e.comm.SendEmail(ctx, to, subject, html, text); err != nil {
		return conversation.Conversation{}, err
	}

	conv := conversation.New(channel.Email)
	conv.Metadata["to"] = to
	conv.Metadata["subject"] = subject
	conv = conv.Append(conversation.AssistantMessage(text))
	if err := e.store.Save(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// Close marks the conversation ended.
func (e *Email) Close(ctx context.Context, conversationID string) error {
	return e.end(ctx, conversationID)
}

func emailReply(resp executor.TurnResponse) (html, text string) {
	text = resp.Response.Text
	if text == "" {
		text = resp.Content
	}
	html = resp.Response.HTML
	if html == "" {
		html = "<p>" + text + "</p>"
	}
	return html, text
}

func replySubject(subject string) string {
	if subject == "" {
		return "Re: your message"
	}
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
