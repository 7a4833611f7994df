package provider

import (
	"context"

	"github.com/casualjim/frontdesk/conversation"
	"github.com/invopop/jsonschema"
)

// Descriptor advertises one tool to the model: its name, what it does, and
// the JSON schema of its parameters.
type Descriptor struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// FinishReason explains why the model stopped producing output.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishToolCalls FinishReason = "tool_calls"
	FinishLength    FinishReason = "length"
)

// Request is one completion request: the system instructions, the transcript
// so far, the tools visible on this turn, and sampling parameters.
type Request struct {
	Instructions string
	Messages     []conversation.Message
	Tools        []Descriptor
	Temperature  float64
	MaxTokens    int64

	// Prevents unkeyed literals
	_ struct{}
}

// Response is a completed model turn: either terminal text content or one or
// more tool calls, never both.
type Response struct {
	Content      string
	ToolCalls    []conversation.ToolCall
	FinishReason FinishReason
}

// Model is the AI capability contract. Implementations handle the specifics
// of one backend while the orchestrator stays vendor-agnostic. Complete is
// synchronous; cancellation and deadlines arrive through ctx.
type Model interface {
	Provider
	Complete(ctx context.Context, req Request) (Response, error)
}
