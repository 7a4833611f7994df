// Package openai implements the AI model capability on the OpenAI chat
// completions API.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/pkg/jsonx"
	"github.com/casualjim/frontdesk/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// Config selects the model and credentials. The API key falls back to the
// OPENAI_API_KEY environment variable when empty, which the SDK reads on its
// own.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Provider is a provider.Model backed by OpenAI. The client is built in
// Initialize, never in New, so constructing a receptionist stays free of
// credential use.
type Provider struct {
	provider.Lifecycle

	cfg    Config
	client *openai.Client
}

var _ provider.Model = (*Provider)(nil)

// New returns an uninitialized provider for cfg.
func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = openai.ChatModelGPT4oMini
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Name() string        { return "openai" }
func (p *Provider) Kind() provider.Kind { return provider.KindAI }

func (p *Provider) Initialize(_ context.Context) error {
	if !p.TransitionReady() {
		return nil
	}
	var options []option.RequestOption
	if p.cfg.APIKey != "" {
		options = append(options, option.WithAPIKey(p.cfg.APIKey))
	}
	p.client = openai.NewClient(options...)
	return nil
}

func (p *Provider) HealthCheck(_ context.Context) bool {
	return p.Ready() && p.client != nil
}

func (p *Provider) Dispose(_ context.Context) error {
	p.TransitionDisposed()
	p.client = nil
	return nil
}

func (p *Provider) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	if err := p.Guard(p.Name()); err != nil {
		return provider.Response{}, err
	}

	params, err := p.buildRequest(&req)
	if err != nil {
		return provider.Response{}, err
	}

	chat, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("openai completion: empty choice list")
	}

	return toResponse(chat), nil
}

func (p *Provider) buildRequest(req *provider.Request) (openai.ChatCompletionNewParams, error) {
	msgs := messagesToOpenAI(req.Instructions, req.Messages)

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, desc := range req.Tools {
		jv, err := jsonx.ToDynamicJSON(desc.Parameters)
		if err != nil {
			return openai.ChatCompletionNewParams{}, fmt.Errorf("convert schema for tool %s: %w", desc.Name, err)
		}

		def := openai.FunctionDefinitionParam{
			Name:       openai.String(desc.Name),
			Parameters: openai.F(shared.FunctionParameters(jv)),
		}
		if strings.TrimSpace(desc.Description) != "" {
			def.Description = openai.String(desc.Description)
		}

		tools[i] = openai.ChatCompletionToolParam{
			Type:     openai.F(openai.ChatCompletionToolTypeFunction),
			Function: openai.F(def),
		}
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.cfg.Temperature
	}

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(msgs),
		Model:       openai.F(p.cfg.Model),
		N:           openai.Int(1),
		Temperature: openai.Float(temperature),
	}
	if maxTokens := firstNonZero(req.MaxTokens, p.cfg.MaxTokens); maxTokens > 0 {
		params.MaxTokens = openai.Int(maxTokens)
	}
	if len(tools) > 0 {
		params.Tools = openai.F(tools)
	}
	return params, nil
}

func messagesToOpenAI(instructions string, history []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	result := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(instructions),
	}

	for _, msg := range history {
		switch msg.Role {
		case conversation.RoleSystem:
			// Instructions already lead the request; stored system messages
			// would double up.
		case conversation.RoleUser:
			result = append(result, openai.UserMessage(msg.Content))
		case conversation.RoleAssistant:
			if len(msg.ToolCalls) > 0 {
				tcd := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
				for i, tc := range msg.ToolCalls {
					tcd[i] = openai.ChatCompletionMessageToolCallParam{
						ID:   openai.String(tc.ID),
						Type: openai.F(openai.ChatCompletionMessageToolCallTypeFunction),
						Function: openai.F(openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      openai.String(tc.Name),
							Arguments: openai.String(tc.Arguments),
						}),
					}
				}
				result = append(result, openai.ChatCompletionMessageParam{
					Role:      openai.F(openai.ChatCompletionMessageParamRoleAssistant),
					ToolCalls: openai.F[any](tcd),
				})
				continue
			}
			result = append(result, openai.AssistantMessage(msg.Content))
		case conversation.RoleTool:
			result = append(result, openai.ToolMessage(msg.ToolCallID, msg.Content))
		}
	}
	return result
}

func toResponse(chat *openai.ChatCompletion) provider.Response {
	choice := chat.Choices[0]

	if len(choice.Message.ToolCalls) > 0 {
		calls := make([]conversation.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			calls[i] = conversation.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}
		}
		return provider.Response{
			ToolCalls:    calls,
			FinishReason: provider.FinishToolCalls,
		}
	}

	return provider.Response{
		Content:      choice.Message.Content,
		FinishReason: finishReason(choice.FinishReason),
	}
}

func finishReason(reason openai.ChatCompletionChoicesFinishReason) provider.FinishReason {
	switch reason {
	case openai.ChatCompletionChoicesFinishReasonToolCalls:
		return provider.FinishToolCalls
	case openai.ChatCompletionChoicesFinishReasonLength:
		return provider.FinishLength
	default:
		return provider.FinishStop
	}
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
