package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/casualjim/frontdesk/channel"
	"github.com/fogfish/opts"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Response carries the channel-appropriate renderings of a tool outcome.
// Which field is actually delivered is the channel client's decision, never
// the tool's: Speak serves phone and video, Message/Text serve SMS, and
// HTML/Text serve email.
type Response struct {
	Speak   string `json:"speak,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}

// Result is the outcome of one tool invocation. A failed result is still a
// valid observation for the model; the orchestrator feeds it back rather than
// aborting the turn.
type Result struct {
	Success  bool     `json:"success"`
	Data     any      `json:"data,omitempty"`
	Response Response `json:"response"`
}

// Call is the context handed to a handler: which conversation asked, over
// which channel, with which arguments.
type Call struct {
	ConversationID string
	Channel        channel.Channel
	Params         Params
}

// Params holds the decoded tool arguments.
type Params map[string]any

// String returns the string argument under key, or "" when absent.
func (p Params) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Float returns the numeric argument under key, or 0 when absent.
func (p Params) Float(key string) float64 {
	f, _ := p[key].(float64)
	return f
}

// Int returns the numeric argument under key truncated to an int.
func (p Params) Int(key string) int {
	return int(p.Float(key))
}

// Bool returns the boolean argument under key, or false when absent.
func (p Params) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Handler executes one tool invocation. Returning an error is equivalent to
// returning a failed Result; the dispatcher converts either into an
// observation for the model.
type Handler func(ctx context.Context, call Call) (Result, error)

// ChannelHandlers binds handlers to specific channels. The keys are fixed
// fields rather than an open map so a missing channel binding is visible at
// a glance.
type ChannelHandlers struct {
	Phone Handler
	SMS   Handler
	Email Handler
	Video Handler
}

func (ch ChannelHandlers) forChannel(c channel.Channel) Handler {
	switch c {
	case channel.Phone:
		return ch.Phone
	case channel.SMS:
		return ch.SMS
	case channel.Email:
		return ch.Email
	case channel.Video:
		return ch.Video
	default:
		return nil
	}
}

func (ch ChannelHandlers) empty() bool {
	return ch.Phone == nil && ch.SMS == nil && ch.Email == nil && ch.Video == nil
}

// Tool is a named, schema-described unit of action the model can invoke.
// Build one with New and treat it as immutable afterwards.
type Tool struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Handler     Handler
	Channels    ChannelHandlers
}

// HandlerFor resolves the handler used for an invocation on ch: the
// channel-specific binding wins, the default handler is the fallback, and
// having neither is a configuration error.
func (t Tool) HandlerFor(ch channel.Channel) (Handler, error) {
	if h := t.Channels.forChannel(ch); h != nil {
		return h, nil
	}
	if t.Handler != nil {
		return t.Handler, nil
	}
	return nil, fmt.Errorf("tool %s: %w for channel %s", t.Name, ErrNoHandler, ch)
}

// AvailableOn reports whether the tool can serve ch. A default handler makes
// a tool available on every channel.
func (t Tool) AvailableOn(ch channel.Channel) bool {
	return t.Handler != nil || t.Channels.forChannel(ch) != nil
}

var toolReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// Option configures a tool under construction.
type Option = opts.Option[Tool]

var (
	// Description sets the tool description surfaced to the model.
	Description = opts.ForName[Tool, string]("Description")

	// DefaultHandler sets the handler used when no channel binding matches.
	DefaultHandler = opts.ForName[Tool, Handler]("Handler")

	// WithSchema sets an explicit parameter schema.
	WithSchema = opts.ForName[Tool, *jsonschema.Schema]("Parameters")
)

// Schema derives the parameter schema by reflecting over T, which should be
// a struct whose fields describe the tool's arguments.
func Schema[T any]() Option {
	return opts.Type[Tool](func(t *Tool) error {
		var v T
		schema := toolReflector.Reflect(&v)
		schema.Version = ""
		t.Parameters = schema
		return nil
	})
}

// OnPhone binds a phone-specific handler.
func OnPhone(h Handler) Option {
	return opts.Type[Tool](func(t *Tool) error {
		t.Channels.Phone = h
		return nil
	})
}

// OnSMS binds an SMS-specific handler.
func OnSMS(h Handler) Option {
	return opts.Type[Tool](func(t *Tool) error {
		t.Channels.SMS = h
		return nil
	})
}

// OnEmail binds an email-specific handler.
func OnEmail(h Handler) Option {
	return opts.Type[Tool](func(t *Tool) error {
		t.Channels.Email = h
		return nil
	})
}

// OnVideo binds a video-specific handler.
func OnVideo(h Handler) Option {
	return opts.Type[Tool](func(t *Tool) error {
		t.Channels.Video = h
		return nil
	})
}

// New builds a tool. The name is required and a tool must end up with at
// least one handler, default or channel-bound; anything else is a
// configuration error surfaced here rather than at dispatch time.
func New(name string, options ...Option) (Tool, error) {
	if strings.TrimSpace(name) == "" {
		return Tool{}, fmt.Errorf("tool name is required")
	}

	t := Tool{Name: name}
	if err := opts.Apply(&t, options); err != nil {
		return Tool{}, err
	}

	if t.Handler == nil && t.Channels.empty() {
		return Tool{}, fmt.Errorf("tool %s has no handler", name)
	}
	if t.Parameters == nil {
		t.Parameters = emptySchema()
	}
	return t, nil
}

// Must is New for static tool declarations; it panics on error.
func Must(name string, options ...Option) Tool {
	t, err := New(name, options...)
	if err != nil {
		panic(err)
	}
	return t
}

func emptySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}
}
