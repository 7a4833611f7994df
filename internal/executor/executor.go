// Package executor runs one conversational turn: it assembles the model
// request from the transcript, dispatches the tool calls the model asks for,
// and commits the finished turn to the conversation store in a single save.
package executor

import (
	"context"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/tool"
)

// TurnRequest is one inbound utterance on an existing conversation.
type TurnRequest struct {
	ConversationID string
	Channel        channel.Channel
	Input          string
	Sender         string
}

// TurnResponse is the outcome of a completed turn: the terminal assistant
// text plus whichever channel response fields the executed tools produced.
// Channel clients pick the field that fits their medium.
type TurnResponse struct {
	ConversationID string
	Content        string
	Response       tool.Response
}

// Executor drives turns against a model. Implementations must be safe for
// concurrent turns on distinct conversations.
type Executor interface {
	RunTurn(ctx context.Context, req TurnRequest) (TurnResponse, error)
}
