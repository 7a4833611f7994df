package events

import (
	"testing"
	"time"

	"github.com/casualjim/frontdesk/channel"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestToolInvokedJSON(t *testing.T) {
	runID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	event := ToolInvoked{
		RunID:          runID,
		ConversationID: "conv-1",
		Channel:        channel.Phone,
		Tool:           "check_inventory",
		Arguments:      `{"sku":"A-100"}`,
		Result:         json.RawMessage(`{"in_stock":true}`),
		Timestamp:      timestamp,
	}

	t.Run("marshal", func(t *testing.T) {
		data, err := event.MarshalJSON()
		require.NoError(t, err)

		result := gjson.ParseBytes(data)
		assert.Equal(t, "tool_invoked", result.Get("type").String())
		assert.Equal(t, runID.String(), result.Get("run_id").String())
		assert.Equal(t, "conv-1", result.Get("conversation_id").String())
		assert.Equal(t, "phone", result.Get("channel").String())
		assert.Equal(t, "check_inventory", result.Get("tool").String())
		assert.Equal(t, "A-100", result.Get("arguments.sku").String())
		assert.True(t, result.Get("result.in_stock").Bool())
		assert.Equal(t, timestamp.String(), result.Get("timestamp").String())
	})

	t.Run("round trip", func(t *testing.T) {
		data, err := event.MarshalJSON()
		require.NoError(t, err)

		var decoded ToolInvoked
		require.NoError(t, decoded.UnmarshalJSON(data))
		assert.Equal(t, event.RunID, decoded.RunID)
		assert.Equal(t, event.ConversationID, decoded.ConversationID)
		assert.Equal(t, event.Channel, decoded.Channel)
		assert.Equal(t, event.Tool, decoded.Tool)
		assert.JSONEq(t, event.Arguments, decoded.Arguments)
		assert.JSONEq(t, string(event.Result), string(decoded.Result))
	})

	t.Run("unmarshal errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{name: "invalid json", input: "invalid"},
			{name: "missing type", input: `{"run_id": "` + runID.String() + `"}`},
			{name: "wrong type", input: `{"type": "error", "run_id": "` + runID.String() + `"}`},
			{name: "invalid run_id", input: `{"type": "tool_invoked", "run_id": "nope"}`},
			{name: "missing conversation_id", input: `{"type": "tool_invoked", "run_id": "` + runID.String() + `"}`},
			{name: "missing tool", input: `{"type": "tool_invoked", "run_id": "` + runID.String() + `", "conversation_id": "c", "channel": "phone", "timestamp": "` + timestamp.String() + `"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var e ToolInvoked
				assert.Error(t, e.UnmarshalJSON([]byte(tt.input)))
			})
		}
	})
}

func TestToolInvokedMalformedArguments(t *testing.T) {
	event := ToolInvoked{
		RunID:          uuid.New(),
		ConversationID: "conv-1",
		Channel:        channel.SMS,
		Tool:           "take_message",
		Arguments:      `{"message": "unterminated`,
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := event.MarshalJSON()
	require.NoError(t, err)
	require.True(t, gjson.ValidBytes(data), "event document must stay well-formed")
	assert.Equal(t, event.Arguments, gjson.GetBytes(data, "arguments").String())

	var decoded ToolInvoked
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, event.Arguments, decoded.Arguments)
}

func TestToolFailedJSON(t *testing.T) {
	event := ToolFailed{
		RunID:          uuid.New(),
		ConversationID: "conv-2",
		Channel:        channel.SMS,
		Tool:           "send_quote",
		Err:            "crm unavailable",
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := event.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "tool_failed", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "crm unavailable", gjson.GetBytes(data, "error").String())

	var decoded ToolFailed
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, event, decoded)
}

func TestAssistantReplyJSON(t *testing.T) {
	event := AssistantReply{
		RunID:          uuid.New(),
		ConversationID: "conv-3",
		Channel:        channel.Email,
		Content:        "We are open until 5pm.",
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := event.MarshalJSON()
	require.NoError(t, err)

	var decoded AssistantReply
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, event, decoded)
}

func TestErrorJSON(t *testing.T) {
	event := Error{
		RunID:          uuid.New(),
		ConversationID: "conv-4",
		Channel:        channel.Phone,
		Err:            "model timeout",
		Timestamp:      strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond)),
	}

	data, err := event.MarshalJSON()
	require.NoError(t, err)

	var decoded Error
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, event, decoded)
}

func TestFromJSON(t *testing.T) {
	runID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))

	reply := AssistantReply{
		RunID:          runID,
		ConversationID: "conv-5",
		Channel:        channel.Video,
		Content:        "hello",
		Timestamp:      timestamp,
	}
	data, err := reply.MarshalJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, reply, decoded)

	failed := ToolFailed{
		RunID:          runID,
		ConversationID: "conv-5",
		Channel:        channel.Video,
		Tool:           "book_appointment",
		Err:            "slot taken",
		Timestamp:      timestamp,
	}
	data, err = failed.MarshalJSON()
	require.NoError(t, err)

	decoded, err = FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, failed, decoded)

	_, err = FromJSON([]byte(`{"type":"mystery"}`))
	assert.Error(t, err)
}
