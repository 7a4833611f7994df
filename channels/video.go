package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/internal/executor"
	"github.com/casualjim/frontdesk/pkg/slogx"
)

// InboundVideo is one inbound exchange on a video room.
type InboundVideo struct {
	RoomSID string
	From    string
	Speech  string
}

// Video handles video room sessions. The communicator treats the room SID
// as the call correlation id.
type Video struct {
	core
	fallback string
}

// NewVideo builds the video client.
func NewVideo(cfg Config) (*Video, error) {
	if err := cfg.validate("video"); err != nil {
		return nil, err
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = defaultFallback
	}
	return &Video{core: newCore(cfg), fallback: fallback}, nil
}

// HandleInbound runs one exchange and speaks the reply into the room. Like
// the phone client it degrades to the fallback utterance on model failure.
func (v *Video) HandleInbound(ctx context.Context, in InboundVideo) (string, error) {
	release := v.acquire(in.RoomSID)
	defer release()

	conv, err := v.resolve(ctx, channel.Video,
		func(ctx context.Context) (conversation.Conversation, error) {
			return v.store.GetByCallID(ctx, in.RoomSID)
		},
		func(c *conversation.Conversation) {
			c.CallSID = in.RoomSID
			c.Metadata["from"] = in.From
		},
	)
	if err != nil {
		return "", err
	}

	if reply, ok := v.replayed(in.RoomSID, in.Speech); ok {
		return reply, nil
	}

	reply := v.fallback
	resp, turnErr := v.runTurn(ctx, executor.TurnRequest{
		ConversationID: conv.ID,
		Channel:        channel.Video,
		Input:          in.Speech,
		Sender:         in.From,
	})
	if turnErr != nil {
		slog.ErrorContext(ctx, "video turn failed, speaking fallback",
			slogx.Conversation(conv.ID),
			slogx.Error(turnErr),
		)
	} else {
		reply = spokenReply(resp)
	}

	if err := v.comm.Speak(ctx, in.RoomSID, reply); err != nil {
		return "", fmt.Errorf("speak in room %s: %w", in.RoomSID, err)
	}
	if turnErr == nil {
		v.remember(in.RoomSID, in.Speech, reply)
	}
	return reply, nil
}

// Close leaves the room and marks its conversation ended.
func (v *Video) Close(ctx context.Context, roomSID string) error {
	conv, err := v.store.GetByCallID(ctx, roomSID)
	if err != nil {
		return err
	}
	if err := v.comm.EndCall(ctx, roomSID); err != nil {
		return err
	}
	return v.end(ctx, conv.ID)
}
