// Package channels exposes the per-channel façades of a receptionist. Each
// client translates a channel-native inbound event into an orchestrator turn
// and ships the shaped reply back through its bound communication provider.
// Clients never talk to the AI model directly.
package channels

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/frontdesk/channel"
	"github.com/casualjim/frontdesk/conversation"
	"github.com/casualjim/frontdesk/internal/executor"
	"github.com/casualjim/frontdesk/provider"
)

const defaultTurnTimeout = 30 * time.Second

// Config assembles one channel client. Communicator, Store, and Executor
// are required; the rest default.
type Config struct {
	Communicator provider.Communicator
	Store        conversation.Store
	Executor     executor.Executor

	// Timeout bounds one turn, model and tool time included. Zero means the
	// default.
	Timeout time.Duration

	// Fallback is the utterance spoken when the model fails on a live call.
	// Only the spoken channels use it.
	Fallback string
}

func (c Config) validate(name string) error {
	if c.Communicator == nil {
		return fmt.Errorf("%s client: communicator is required", name)
	}
	if c.Store == nil {
		return fmt.Errorf("%s client: conversation store is required", name)
	}
	if c.Executor == nil {
		return fmt.Errorf("%s client: executor is required", name)
	}
	return nil
}

// core holds the plumbing shared by every channel client.
type core struct {
	comm    provider.Communicator
	store   conversation.Store
	exec    executor.Executor
	timeout time.Duration

	// seen maps correlation-id+utterance to the reply already produced, so
	// webhook replays do not run a second turn.
	seen *haxmap.Map[string, string]

	// locks serializes inbound handling per correlation id. A racing
	// duplicate delivery waits behind the first and then hits the replay
	// cache instead of running a concurrent turn on the same conversation.
	locks *haxmap.Map[string, *sync.Mutex]
}

func newCore(cfg Config) core {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTurnTimeout
	}
	return core{
		comm:    cfg.Communicator,
		store:   cfg.Store,
		exec:    cfg.Executor,
		timeout: timeout,
		seen:    haxmap.New[string, string](),
		locks:   haxmap.New[string, *sync.Mutex](),
	}
}

// acquire takes the per-correlation-id lock and returns its release. Every
// inbound handler holds it for the whole resolve-turn-transmit sequence.
func (c *core) acquire(sid string) func() {
	mu, _ := c.locks.GetOrCompute(sid, func() *sync.Mutex { return new(sync.Mutex) })
	mu.Lock()
	return mu.Unlock
}

// resolve finds the conversation behind a correlation id or creates and
// saves a fresh one on first contact.
func (c *core) resolve(ctx context.Context, ch channel.Channel, lookup func(context.Context) (conversation.Conversation, error), seed func(*conversation.Conversation)) (conversation.Conversation, error) {
	conv, err := lookup(ctx)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, conversation.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	conv = conversation.New(ch)
	seed(&conv)
	if err := c.store.Save(ctx, conv); err != nil {
		return conversation.Conversation{}, err
	}
	return conv, nil
}

func (c *core) runTurn(ctx context.Context, req executor.TurnRequest) (executor.TurnResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.exec.RunTurn(ctx, req)
}

func dedupeKey(sid, input string) string {
	return sid + "\x00" + input
}

// replayed returns the reply already sent for this exact correlation id and
// utterance, if any.
func (c *core) replayed(sid, input string) (string, bool) {
	return c.seen.Get(dedupeKey(sid, input))
}

func (c *core) remember(sid, input, reply string) {
	c.seen.Set(dedupeKey(sid, input), reply)
}

// end marks the conversation behind id as ended.
func (c *core) end(ctx context.Context, id string) error {
	ended := conversation.StatusEnded
	_, err := c.store.Update(ctx, id, conversation.Update{Status: &ended})
	return err
}
