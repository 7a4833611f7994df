package events

import (
	"fmt"

	"github.com/casualjim/frontdesk/channel"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	toolInvokedJSON    = []byte(`{"type":"tool_invoked"}`)
	toolFailedJSON     = []byte(`{"type":"tool_failed"}`)
	assistantReplyJSON = []byte(`{"type":"assistant_reply"}`)
	errorJSON          = []byte(`{"type":"error"}`)
)

// Event is implemented by every run event in this package.
type Event interface {
	runEvent()
}

// ToolInvoked records a completed tool execution.
type ToolInvoked struct {
	RunID          uuid.UUID       `json:"run_id"`
	ConversationID string          `json:"conversation_id"`
	Channel        channel.Channel `json:"channel"`
	Tool           string          `json:"tool"`
	Arguments      string          `json:"arguments,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Timestamp      strfmt.DateTime `json:"timestamp"`
}

func (ToolInvoked) runEvent() {}

// MarshalJSON implements custom JSON marshaling for ToolInvoked
func (e ToolInvoked) MarshalJSON() ([]byte, error) {
	result, err := marshalHeader(toolInvokedJSON, e.RunID, e.ConversationID, e.Channel, e.Timestamp)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "tool", e.Tool)
	if err != nil {
		return nil, err
	}
	if e.Arguments != "" {
		// Arguments come straight from the model and are not guaranteed to
		// be valid JSON; keep the document well-formed either way.
		if gjson.ValidBytes([]byte(e.Arguments)) {
			result, err = sjson.SetRawBytes(result, "arguments", []byte(e.Arguments))
		} else {
			result, err = sjson.SetBytes(result, "arguments", e.Arguments)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(e.Result) > 0 {
		result, err = sjson.SetRawBytes(result, "result", e.Result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolInvoked
func (e *ToolInvoked) UnmarshalJSON(data []byte) error {
	if err := unmarshalHeader(data, "tool_invoked", &e.RunID, &e.ConversationID, &e.Channel, &e.Timestamp); err != nil {
		return err
	}

	tool := gjson.GetBytes(data, "tool")
	if !tool.Exists() {
		return fmt.Errorf("missing required field 'tool'")
	}
	e.Tool = tool.String()

	if args := gjson.GetBytes(data, "arguments"); args.Exists() {
		if args.Type == gjson.String {
			e.Arguments = args.String()
		} else {
			e.Arguments = args.Raw
		}
	}
	if result := gjson.GetBytes(data, "result"); result.Exists() {
		e.Result = json.RawMessage(result.Raw)
	}
	return nil
}

// ToolFailed records a tool handler returning an error or panicking.
type ToolFailed struct {
	RunID          uuid.UUID       `json:"run_id"`
	ConversationID string          `json:"conversation_id"`
	Channel        channel.Channel `json:"channel"`
	Tool           string          `json:"tool"`
	Err            string          `json:"error"`
	Timestamp      strfmt.DateTime `json:"timestamp"`
}

func (ToolFailed) runEvent() {}

// MarshalJSON implements custom JSON marshaling for ToolFailed
func (e ToolFailed) MarshalJSON() ([]byte, error) {
	result, err := marshalHeader(toolFailedJSON, e.RunID, e.ConversationID, e.Channel, e.Timestamp)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "tool", e.Tool)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "error", e.Err)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for ToolFailed
func (e *ToolFailed) UnmarshalJSON(data []byte) error {
	if err := unmarshalHeader(data, "tool_failed", &e.RunID, &e.ConversationID, &e.Channel, &e.Timestamp); err != nil {
		return err
	}

	tool := gjson.GetBytes(data, "tool")
	if !tool.Exists() {
		return fmt.Errorf("missing required field 'tool'")
	}
	e.Tool = tool.String()

	errField := gjson.GetBytes(data, "error")
	if !errField.Exists() {
		return fmt.Errorf("missing required field 'error'")
	}
	e.Err = errField.String()
	return nil
}

// AssistantReply records the terminal assistant message of a turn, after
// channel shaping.
type AssistantReply struct {
	RunID          uuid.UUID       `json:"run_id"`
	ConversationID string          `json:"conversation_id"`
	Channel        channel.Channel `json:"channel"`
	Content        string          `json:"content"`
	Timestamp      strfmt.DateTime `json:"timestamp"`
}

func (AssistantReply) runEvent() {}

// MarshalJSON implements custom JSON marshaling for AssistantReply
func (e AssistantReply) MarshalJSON() ([]byte, error) {
	result, err := marshalHeader(assistantReplyJSON, e.RunID, e.ConversationID, e.Channel, e.Timestamp)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "content", e.Content)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for AssistantReply
func (e *AssistantReply) UnmarshalJSON(data []byte) error {
	if err := unmarshalHeader(data, "assistant_reply", &e.RunID, &e.ConversationID, &e.Channel, &e.Timestamp); err != nil {
		return err
	}

	content := gjson.GetBytes(data, "content")
	if !content.Exists() {
		return fmt.Errorf("missing required field 'content'")
	}
	e.Content = content.String()
	return nil
}

// Error records a turn failing before it produced a reply.
type Error struct {
	RunID          uuid.UUID       `json:"run_id"`
	ConversationID string          `json:"conversation_id"`
	Channel        channel.Channel `json:"channel"`
	Err            string          `json:"error"`
	Timestamp      strfmt.DateTime `json:"timestamp"`
}

func (Error) runEvent() {}

// MarshalJSON implements custom JSON marshaling for Error
func (e Error) MarshalJSON() ([]byte, error) {
	result, err := marshalHeader(errorJSON, e.RunID, e.ConversationID, e.Channel, e.Timestamp)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "error", e.Err)
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Error
func (e *Error) UnmarshalJSON(data []byte) error {
	if err := unmarshalHeader(data, "error", &e.RunID, &e.ConversationID, &e.Channel, &e.Timestamp); err != nil {
		return err
	}

	errField := gjson.GetBytes(data, "error")
	if !errField.Exists() {
		return fmt.Errorf("missing required field 'error'")
	}
	e.Err = errField.String()
	return nil
}

func marshalHeader(typed []byte, runID uuid.UUID, conversationID string, ch channel.Channel, ts strfmt.DateTime) ([]byte, error) {
	result, err := sjson.SetBytes(typed, "run_id", runID.String())
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "conversation_id", conversationID)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "channel", string(ch))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "timestamp", ts.String())
}

func unmarshalHeader(data []byte, wantType string, runID *uuid.UUID, conversationID *string, ch *channel.Channel, ts *strfmt.DateTime) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != wantType {
		return fmt.Errorf("missing or invalid type, expected '%s'", wantType)
	}

	rid := gjson.GetBytes(data, "run_id")
	if !rid.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := runID.UnmarshalText([]byte(rid.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	cid := gjson.GetBytes(data, "conversation_id")
	if !cid.Exists() {
		return fmt.Errorf("missing required field 'conversation_id'")
	}
	*conversationID = cid.String()

	chField := gjson.GetBytes(data, "channel")
	if !chField.Exists() {
		return fmt.Errorf("missing required field 'channel'")
	}
	*ch = channel.Channel(chField.String())

	tsField := gjson.GetBytes(data, "timestamp")
	if !tsField.Exists() {
		return fmt.Errorf("missing required field 'timestamp'")
	}
	parsed, err := strfmt.ParseDateTime(tsField.String())
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	*ts = parsed
	return nil
}

// FromJSON decodes any run event by its type marker.
func FromJSON(data []byte) (Event, error) {
	switch gjson.GetBytes(data, "type").String() {
	case "tool_invoked":
		var e ToolInvoked
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	case "tool_failed":
		var e ToolFailed
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	case "assistant_reply":
		var e AssistantReply
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type in %s", data)
	}
}
