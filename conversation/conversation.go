// Package conversation holds the persisted session state for one channel
// interaction and the Store contract that owns its persistence. Conversations
// are keyed by an internal id and indexed by the correlation ids that
// communication providers hand back (call SID, message SID), because inbound
// webhooks carry those, not our id.
package conversation

import (
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/pkg/uuidx"
	"github.com/go-openapi/strfmt"
)

// Role identifies the author of a message in the conversation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Status tracks the lifecycle of a conversation.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// ToolCall is a model-emitted request to invoke a tool. ID is echoed back on
// the corresponding tool message so multi-call turns stay correlated.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in a conversation transcript. Assistant messages that
// request tools carry ToolCalls; tool messages carry the originating
// ToolCallID and ToolName alongside the observed result.
type Message struct {
	Role       Role            `json:"role"`
	Content    string          `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	ToolName   string          `json:"tool_name,omitempty"`
	Timestamp  strfmt.DateTime `json:"timestamp,omitempty"`
}

// UserMessage builds a user transcript entry stamped with the current time.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: strfmt.DateTime(time.Now())}
}

// AssistantMessage builds an assistant transcript entry stamped with the
// current time.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: strfmt.DateTime(time.Now())}
}

// ToolCallMessage builds the assistant entry recording the model's tool-call
// request, in the order the model returned the calls.
func ToolCallMessage(calls []ToolCall) Message {
	return Message{Role: RoleAssistant, ToolCalls: calls, Timestamp: strfmt.DateTime(time.Now())}
}

// ToolResultMessage builds the tool entry pairing a result with its call id.
func ToolResultMessage(callID, name, content string) Message {
	return Message{
		Role:       RoleTool,
		ToolCallID: callID,
		ToolName:   name,
		Content:    content,
		Timestamp:  strfmt.DateTime(time.Now()),
	}
}

// Conversation is the session state for one channel interaction.
type Conversation struct {
	ID         string            `json:"id"`
	Channel    channel.Channel   `json:"channel"`
	Status     Status            `json:"status"`
	Messages   []Message         `json:"messages"`
	CallSID    string            `json:"call_sid,omitempty"`
	MessageSID string            `json:"message_sid,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// New creates an active conversation on the given channel with a fresh id.
func New(ch channel.Channel) Conversation {
	return Conversation{
		ID:        uuidx.NewString(),
		Channel:   ch,
		Status:    StatusActive,
		StartedAt: time.Now(),
		Metadata:  map[string]string{},
	}
}

// Append returns the conversation with msgs added to the transcript.
func (c Conversation) Append(msgs ...Message) Conversation {
	c.Messages = append(slicesClone(c.Messages), msgs...)
	return c
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state through a shared slice or map.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m
		if len(m.ToolCalls) > 0 {
			out.Messages[i].ToolCalls = slicesClone(m.ToolCalls)
		}
	}
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func slicesClone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
