package frontdesk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/casualjim/frontdesk/broker"
	"github.com/casualjim/frontdesk/channels"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/events"
	"github.com/casualjim/frontdesk/internal/executor"
	"github.com/casualjim/frontdesk/provider"
	"github.com/casualjim/frontdesk/provider/loopback"
	"github.com/casualjim/frontdesk/tool"
	"github.com/fogfish/opts"
)

// Option configures a Receptionist under construction or a clone.
type Option = opts.Option[Receptionist]

// WithAgent overlays the non-empty fields of cfg onto the persona. On a
// fresh receptionist that sets the persona; on a clone it overrides just
// the fields given.
func WithAgent(cfg AgentConfig) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.agent = r.agent.merge(cfg)
		return nil
	})
}

// WithModel configures the AI model by description; the concrete provider
// is built during New.
func WithModel(cfg ModelConfig) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.modelCfg = &cfg
		return nil
	})
}

// WithModelProvider installs a pre-built model, bypassing the factory.
func WithModelProvider(m provider.Model) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.model = m
		return nil
	})
}

// WithCommunicator binds the telephony and messaging backend.
func WithCommunicator(c provider.Communicator) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.comm = c
		return nil
	})
}

// WithCalendar binds the scheduling backend used by book_appointment.
func WithCalendar(c provider.Calendar) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.calendar = c
		return nil
	})
}

// WithProviders registers extra providers that share the receptionist's
// lifecycle: initialized on Initialize, disposed with the family.
func WithProviders(ps ...provider.Provider) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.extras = append(r.extras, ps...)
		return nil
	})
}

// WithStore replaces the in-memory conversation store.
func WithStore(s conversation.Store) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.store = s
		return nil
	})
}

// WithDefaultTools enables the built-in tool set. With no names every
// default tool is registered; with names only those are.
func WithDefaultTools(names ...string) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.useDefaults = true
		r.defaultNames = names
		return nil
	})
}

// WithTools registers custom tools after the defaults.
func WithTools(ts ...tool.Tool) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.custom = append(r.custom, ts...)
		return nil
	})
}

// WithHook installs an observer for run events. It is wrapped in a panic
// boundary; a broken observer cannot fail a turn.
func WithHook(h events.Hook) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.hook = h
		return nil
	})
}

// WithBroker additionally publishes every run event to a per-conversation
// topic on b.
func WithBroker(b broker.Broker) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.brk = b
		return nil
	})
}

// WithTurnTimeout bounds one conversational turn end to end.
func WithTurnTimeout(d time.Duration) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.turnTimeout = d
		return nil
	})
}

// WithFallbackUtterance replaces the phrase spoken on phone and video when
// the model fails mid-call.
func WithFallbackUtterance(s string) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.fallback = s
		return nil
	})
}

// WithBusinessHours sets the hours description the check_business_hours
// tool reports.
func WithBusinessHours(s string) Option {
	return opts.Type[Receptionist](func(r *Receptionist) error {
		r.hours = s
		return nil
	})
}

// Receptionist is the composition root: one agent persona wired to an AI
// model, a tool registry, a conversation store, and the channel clients.
type Receptionist struct {
	mu sync.Mutex

	agent        AgentConfig
	modelCfg     *ModelConfig
	model        provider.Model
	comm         provider.Communicator
	calendar     provider.Calendar
	extras       []provider.Provider
	store        conversation.Store
	hook         events.Hook
	brk          broker.Broker
	turnTimeout  time.Duration
	fallback     string
	hours        string
	useDefaults  bool
	defaultNames []string
	custom       []tool.Tool

	tools    *tool.Registry
	exec     executor.Executor
	phone    *channels.Phone
	sms      *channels.SMS
	email    *channels.Email
	video    *channels.Video
	messages *messageBook

	shared      *sharedProviders
	initialized bool
	disposed    bool
}

// New builds a receptionist. It requires an agent name, a model source, and
// at least one tool source; infrastructure not supplied gets an in-process
// default (memory store, loopback communicator). Nothing touches the
// network until Initialize.
func New(options ...Option) (*Receptionist, error) {
	r := &Receptionist{
		hours:    defaultHours,
		messages: &messageBook{},
	}
	if err := opts.Apply(r, options); err != nil {
		return nil, err
	}

	if r.agent.Name == "" {
		return nil, errors.New("frontdesk: agent name is required")
	}
	if r.model == nil && r.modelCfg == nil {
		return nil, errors.New("frontdesk: a model is required, use WithModel or WithModelProvider")
	}
	if !r.useDefaults && len(r.custom) == 0 {
		return nil, errors.New("frontdesk: no tools configured, use WithDefaultTools or WithTools")
	}

	if r.model == nil {
		model, err := buildModel(*r.modelCfg)
		if err != nil {
			return nil, err
		}
		r.model = model
	}
	if r.comm == nil {
		r.comm = loopback.New()
	}
	if r.store == nil {
		r.store = conversation.NewMemoryStore()
	}

	r.shared = newSharedProviders()
	r.adoptProviders()
	return r, nil
}

// adoptProviders hands every owned provider to the shared refcounted set.
func (r *Receptionist) adoptProviders() {
	r.shared.add(r.model)
	r.shared.add(r.comm)
	if r.calendar != nil {
		r.shared.add(r.calendar)
	}
	for _, p := range r.extras {
		r.shared.add(p)
	}
}

// Initialize brings the receptionist online: providers first, then the tool
// registry, then the channel clients. It is idempotent.
func (r *Receptionist) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return errors.New("frontdesk: receptionist is disposed")
	}
	if r.initialized {
		return nil
	}

	if err := r.shared.initialize(ctx); err != nil {
		return err
	}

	registry := tool.NewRegistry()
	if r.useDefaults {
		for _, t := range r.defaultTools() {
			if !wanted(t.Name, r.defaultNames) {
				continue
			}
			if err := registry.Register(t); err != nil {
				return fmt.Errorf("register default tool: %w", err)
			}
		}
	}
	for _, t := range r.custom {
		if err := registry.Register(t); err != nil {
			return fmt.Errorf("register tool: %w", err)
		}
	}
	r.tools = registry

	hook := r.hook
	if r.brk != nil {
		hook = joinHooks(hook, brokerHook{brk: r.brk})
	}

	var temperature float64
	var maxTokens int64
	if r.modelCfg != nil {
		temperature = r.modelCfg.Temperature
		maxTokens = r.modelCfg.MaxTokens
	}

	exec, err := executor.NewLocal(executor.Config{
		Model:        r.model,
		Tools:        registry,
		Store:        r.store,
		Hook:         hook,
		Instructions: r.agent.SystemMessage(),
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	})
	if err != nil {
		return err
	}
	r.exec = exec

	clientCfg := channels.Config{
		Communicator: r.comm,
		Store:        r.store,
		Executor:     exec,
		Timeout:      r.turnTimeout,
		Fallback:     r.fallback,
	}
	if r.phone, err = channels.NewPhone(clientCfg); err != nil {
		return err
	}
	if r.sms, err = channels.NewSMS(clientCfg); err != nil {
		return err
	}
	if r.email, err = channels.NewEmail(clientCfg); err != nil {
		return err
	}
	if r.video, err = channels.NewVideo(clientCfg); err != nil {
		return err
	}

	r.initialized = true
	return nil
}

// Phone returns the voice client. Initialize first.
func (r *Receptionist) Phone() *channels.Phone { return r.phone }

// SMS returns the text messaging client. Initialize first.
func (r *Receptionist) SMS() *channels.SMS { return r.sms }

// Email returns the email client. Initialize first.
func (r *Receptionist) Email() *channels.Email { return r.email }

// Video returns the video room client. Initialize first.
func (r *Receptionist) Video() *channels.Video { return r.video }

// Tools returns the registry built during Initialize.
func (r *Receptionist) Tools() *tool.Registry { return r.tools }

// Agent returns the persona.
func (r *Receptionist) Agent() AgentConfig { return r.agent }

// Store returns the conversation store.
func (r *Receptionist) Store() conversation.Store { return r.store }

// Messages returns the messages taken by the take_message tool, oldest
// first.
func (r *Receptionist) Messages() []TakenMessage { return r.messages.all() }

// Clone derives a sibling receptionist. The clone shares the parent's
// providers and conversation store but applies its own persona overrides
// and, if given, its own tool set. Initialize the clone before use; shared
// providers that are already up stay up.
func (r *Receptionist) Clone(options ...Option) (*Receptionist, error) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil, errors.New("frontdesk: cannot clone a disposed receptionist")
	}

	child := &Receptionist{
		agent:        r.agent,
		modelCfg:     r.modelCfg,
		model:        r.model,
		comm:         r.comm,
		calendar:     r.calendar,
		extras:       r.extras,
		store:        r.store,
		hook:         r.hook,
		brk:          r.brk,
		turnTimeout:  r.turnTimeout,
		fallback:     r.fallback,
		hours:        r.hours,
		useDefaults:  r.useDefaults,
		defaultNames: r.defaultNames,
		custom:       append([]tool.Tool(nil), r.custom...),
		messages:     &messageBook{},
		shared:       r.shared,
	}
	r.mu.Unlock()

	if err := opts.Apply(child, options); err != nil {
		return nil, err
	}
	if child.agent.Name == "" {
		return nil, errors.New("frontdesk: agent name is required")
	}

	child.shared.retain()
	// Providers added by clone options join the shared set.
	child.adoptProviders()
	return child, nil
}

// Dispose releases this receptionist's claim on the shared providers and
// tears them down when it is the last member of the family. Calling it
// twice is a no-op.
func (r *Receptionist) Dispose(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.disposed {
		return nil
	}
	r.disposed = true
	r.initialized = false
	return r.shared.release(ctx)
}

func wanted(name string, names []string) bool {
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// sharedProviders is the refcounted provider set shared across a clone
// family. Initialize is idempotent per provider, so every family member can
// call it; Dispose runs exactly once, when the last reference is released.
type sharedProviders struct {
	mu        sync.Mutex
	refs      int
	providers []provider.Provider
	disposed  bool
}

func newSharedProviders() *sharedProviders {
	return &sharedProviders{refs: 1}
}

func (s *sharedProviders) add(p provider.Provider) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.providers {
		if existing == p {
			return
		}
	}
	s.providers = append(s.providers, p)
}

func (s *sharedProviders) retain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs++
}

func (s *sharedProviders) initialize(ctx context.Context) error {
	s.mu.Lock()
	providers := append([]provider.Provider(nil), s.providers...)
	s.mu.Unlock()

	for _, p := range providers {
		if err := p.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize provider %s: %w", p.Name(), err)
		}
	}
	return nil
}

func (s *sharedProviders) release(ctx context.Context) error {
	s.mu.Lock()
	s.refs--
	last := s.refs == 0 && !s.disposed
	if last {
		s.disposed = true
	}
	providers := append([]provider.Provider(nil), s.providers...)
	s.mu.Unlock()

	if !last {
		return nil
	}

	var errs []error
	for _, p := range providers {
		if err := p.Dispose(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dispose provider %s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
