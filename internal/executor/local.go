package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/events"
	"github.com/casualjim/frontdesk/pkg/slogx"
	"github.com/casualjim/frontdesk/pkg/uuidx"
	"github.com/casualjim/frontdesk/provider"
	"github.com/casualjim/frontdesk/tool"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const defaultMaxToolRounds = 8

// ErrToolRounds means the model kept requesting tools past the round limit.
var ErrToolRounds = errors.New("tool call rounds exceeded")

// Config assembles a Local executor. Model, Tools, and Store are required.
type Config struct {
	Model        provider.Model
	Tools        *tool.Registry
	Store        conversation.Store
	Hook         events.Hook
	Instructions string
	Temperature  float64
	MaxTokens    int64

	// MaxToolRounds bounds how many times one turn may loop back to the
	// model with tool results. Zero means the default.
	MaxToolRounds int
}

// Local runs turns in-process against the configured model.
type Local struct {
	cfg  Config
	hook events.Hook
}

var _ Executor = (*Local)(nil)

// NewLocal validates cfg and returns an executor.
func NewLocal(cfg Config) (*Local, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("executor: model is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("executor: tool registry is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("executor: conversation store is required")
	}
	if cfg.MaxToolRounds == 0 {
		cfg.MaxToolRounds = defaultMaxToolRounds
	}
	return &Local{cfg: cfg, hook: events.Guard(cfg.Hook)}, nil
}

// RunTurn executes req to completion. The transcript grows only in a
// buffered copy; the store sees a single Save once the whole turn has
// succeeded, so a failed turn leaves no partial state behind.
func (l *Local) RunTurn(ctx context.Context, req TurnRequest) (TurnResponse, error) {
	runID := uuidx.New()

	conv, err := l.cfg.Store.Get(ctx, req.ConversationID)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("load conversation %s: %w", req.ConversationID, err)
	}

	buffered := conv.Append(conversation.UserMessage(req.Input))
	descriptors := descriptorsFor(l.cfg.Tools.ListAvailable(req.Channel))

	var accumulated tool.Response

	for round := 0; ; round++ {
		if round >= l.cfg.MaxToolRounds {
			err := fmt.Errorf("%w after %d rounds", ErrToolRounds, round)
			l.emitError(ctx, runID, req, err)
			return TurnResponse{}, err
		}

		resp, err := l.cfg.Model.Complete(ctx, provider.Request{
			Instructions: l.cfg.Instructions,
			Messages:     buffered.Messages,
			Tools:        descriptors,
			Temperature:  l.cfg.Temperature,
			MaxTokens:    l.cfg.MaxTokens,
		})
		if err != nil {
			l.emitError(ctx, runID, req, err)
			return TurnResponse{}, fmt.Errorf("model completion: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			buffered = buffered.Append(conversation.AssistantMessage(resp.Content))
			if err := l.cfg.Store.Save(ctx, buffered); err != nil {
				return TurnResponse{}, fmt.Errorf("save conversation %s: %w", req.ConversationID, err)
			}

			l.hook.OnAssistantMessage(ctx, events.AssistantReply{
				RunID:          runID,
				ConversationID: req.ConversationID,
				Channel:        req.Channel,
				Content:        resp.Content,
				Timestamp:      strfmt.DateTime(time.Now()),
			})
			return TurnResponse{
				ConversationID: req.ConversationID,
				Content:        resp.Content,
				Response:       accumulated,
			}, nil
		}

		buffered = buffered.Append(conversation.ToolCallMessage(resp.ToolCalls))

		// Dispatch strictly in the order the model emitted the calls.
		for _, call := range resp.ToolCalls {
			result, err := l.dispatch(ctx, runID, req, call)
			if err != nil {
				l.emitError(ctx, runID, req, err)
				return TurnResponse{}, err
			}
			if result.Success {
				accumulated = mergeResponse(accumulated, result.Response)
			}

			content, err := json.Marshal(result)
			if err != nil {
				return TurnResponse{}, fmt.Errorf("marshal result of %s: %w", call.Name, err)
			}
			buffered = buffered.Append(conversation.ToolResultMessage(call.ID, call.Name, string(content)))
		}
	}
}

// dispatch resolves and runs one tool call. A handler error or panic becomes
// a failed Result for the model; an unknown tool or a missing channel
// binding is a configuration error that fails the turn.
func (l *Local) dispatch(ctx context.Context, runID uuid.UUID, req TurnRequest, call conversation.ToolCall) (tool.Result, error) {
	t, err := l.cfg.Tools.Get(call.Name)
	if err != nil {
		return tool.Result{}, fmt.Errorf("model requested %q: %w", call.Name, err)
	}
	handler, err := t.HandlerFor(req.Channel)
	if err != nil {
		return tool.Result{}, err
	}

	result, invokeErr := invoke(ctx, handler, tool.Call{
		ConversationID: req.ConversationID,
		Channel:        req.Channel,
		Params:         decodeParams(call.Arguments),
	})
	if invokeErr != nil {
		slog.WarnContext(ctx, "tool failed",
			slog.String("tool", call.Name),
			slogx.Conversation(req.ConversationID),
			slogx.Error(invokeErr),
		)
		l.hook.OnToolError(ctx, events.ToolFailed{
			RunID:          runID,
			ConversationID: req.ConversationID,
			Channel:        req.Channel,
			Tool:           call.Name,
			Err:            invokeErr.Error(),
			Timestamp:      strfmt.DateTime(time.Now()),
		})
		return tool.Result{Success: false, Data: invokeErr.Error()}, nil
	}

	raw, _ := json.Marshal(result)
	l.hook.OnToolExecute(ctx, events.ToolInvoked{
		RunID:          runID,
		ConversationID: req.ConversationID,
		Channel:        req.Channel,
		Tool:           call.Name,
		Arguments:      call.Arguments,
		Result:         raw,
		Timestamp:      strfmt.DateTime(time.Now()),
	})
	return result, nil
}

func (l *Local) emitError(ctx context.Context, runID uuid.UUID, req TurnRequest, err error) {
	l.hook.OnError(ctx, events.Error{
		RunID:          runID,
		ConversationID: req.ConversationID,
		Channel:        req.Channel,
		Err:            err.Error(),
		Timestamp:      strfmt.DateTime(time.Now()),
	})
}

func invoke(ctx context.Context, handler tool.Handler, call tool.Call) (result tool.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return handler(ctx, call)
}

func descriptorsFor(tools []tool.Tool) []provider.Descriptor {
	out := make([]provider.Descriptor, len(tools))
	for i, t := range tools {
		out[i] = provider.Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		}
	}
	return out
}

func decodeParams(arguments string) tool.Params {
	params := tool.Params{}
	parsed := gjson.Parse(arguments)
	if !parsed.IsObject() {
		return params
	}
	for key, value := range parsed.Map() {
		params[key] = value.Value()
	}
	return params
}

// mergeResponse overlays the non-empty fields of next onto acc. When several
// tools answer in one turn the later tool wins per field, matching the order
// the model asked for them.
func mergeResponse(acc, next tool.Response) tool.Response {
	if next.Speak != "" {
		acc.Speak = next.Speak
	}
	if next.Message != "" {
		acc.Message = next.Message
	}
	if next.Text != "" {
		acc.Text = next.Text
	}
	if next.HTML != "" {
		acc.HTML = next.HTML
	}
	return acc
}
