package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/internal/executor"
	"github.com/casualjim/frontdesk/pkg/slogx"
	"github.com/casualjim/frontdesk/provider"
)

const defaultFallback = "I'm sorry, I'm having trouble hearing you. Please hold for a moment."

// InboundCall is one inbound voice webhook: the telephony correlation id,
// the caller, and the transcribed speech of this exchange.
type InboundCall struct {
	CallSID string
	From    string
	Speech  string
}

// Phone answers and originates voice calls.
type Phone struct {
	core
	fallback string
}

// NewPhone builds the phone client.
func NewPhone(cfg Config) (*Phone, error) {
	if err := cfg.validate("phone"); err != nil {
		return nil, err
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = defaultFallback
	}
	return &Phone{core: newCore(cfg), fallback: fallback}, nil
}

// HandleInbound runs one voice exchange and speaks the reply on the call.
// It returns the utterance actually spoken. A model failure degrades to the
// fallback utterance so the caller never gets silence; the failure itself is
// logged, not returned.
func (p *Phone) HandleInbound(ctx context.Context, in InboundCall) (string, error) {
	release := p.acquire(in.CallSID)
	defer release()

	conv, err := p.resolve(ctx, channel.Phone,
		func(ctx context.Context) (conversation.Conversation, error) {
			return p.store.GetByCallID(ctx, in.CallSID)
		},
		func(c *conversation.Conversation) {
			c.CallSID = in.CallSID
			c.Metadata["from"] = in.From
		},
	)
	if err != nil {
		return "", err
	}

	if reply, ok := p.replayed(in.CallSID, in.Speech); ok {
		return reply, nil
	}

	reply := p.fallback
	resp, turnErr := p.runTurn(ctx, executor.TurnRequest{
		ConversationID: conv.ID,
		Channel:        channel.Phone,
		Input:          in.Speech,
		Sender:         in.From,
	})
	if turnErr != nil {
		slog.ErrorContext(ctx, "phone turn failed, speaking fallback",
			slogx.Conversation(conv.ID),
			slogx.Error(turnErr),
		)
	} else {
		reply = spokenReply(resp)
	}

	if err := p.comm.Speak(ctx, in.CallSID, reply); err != nil {
		return "", fmt.Errorf("speak on call %s: %w", in.CallSID, err)
	}
	// Cache only after the caller actually heard the reply, so a provider
	// retry of a failed transmit runs the replay path with nothing cached.
	if turnErr == nil {
		p.remember(in.CallSID, in.Speech, reply)
	}
	return reply, nil
}

// Call originates an outbound call and opens the conversation keyed by the
// new call SID.
func (p *Phone) Call(ctx context.Context, to string, opts provider.CallOpts) (conversation.Conversation, error) {
	callSID, err := p.comm.MakeCall(ctx, to, opts)
	if err != nil {
		return conversation.Conversation{}, err
	}

	conv := conversation.New(channel.Phone)
	conv.CallSID = callSID
	conv.Metadata["to"] = to
	if err := p.store.Save(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

// HangUp terminates the call and marks its conversation ended.
func (p *Phone) HangUp(ctx context.Context, callSID string) error {
	conv, err := p.store.GetByCallID(ctx, callSID)
	if err != nil {
		return err
	}
	if err := p.comm.EndCall(ctx, callSID); err != nil {
		return err
	}
	return p.end(ctx, conv.ID)
}

func spokenReply(resp executor.TurnResponse) string {
	if resp.Response.Speak != "" {
		return resp.Response.Speak
	}
	return resp.Content
}
