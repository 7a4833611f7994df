package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/casualjim/frontdesk/channel"
)

var (
	// ErrDuplicate is returned when registering a tool whose name is taken.
	ErrDuplicate = errors.New("tool already registered")

	// ErrNotFound is returned when looking up a tool that was never registered.
	ErrNotFound = errors.New("tool not found")

	// ErrNoHandler is returned when a tool has neither a handler for the
	// requested channel nor a default handler.
	ErrNoHandler = errors.New("no handler")
)

// Registry holds the set of tools available to one agent. Registration order
// is preserved so the tool listing handed to the model is stable between
// turns.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool, rejecting duplicate names. Rejecting rather than
// overwriting keeps a misconfigured custom tool from silently replacing a
// default one.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, t.Name)
	}
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// ListAvailable returns every tool that can serve ch, in registration order.
// Tools with a default handler are available on every channel; tools with
// only channel bindings appear just for those channels.
func (r *Registry) ListAvailable(ch channel.Channel) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Tool
	for _, name := range r.order {
		if t := r.tools[name]; t.AvailableOn(ch) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
