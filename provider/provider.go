// Package provider defines the uniform lifecycle contract for infrastructure
// adapters (telephony, AI models, calendars) and the capability interfaces a
// receptionist composes. Constructors never touch the network; credentials
// are only used once Initialize runs.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Kind classifies what capability a provider adapts.
type Kind string

const (
	KindCommunication Kind = "communication"
	KindAI            Kind = "ai"
	KindCalendar      Kind = "calendar"
	KindCRM           Kind = "crm"
	KindStorage       Kind = "storage"
	KindCustom        Kind = "custom"
)

// ErrUninitialized is the sentinel wrapped by Uninitialized.
var ErrUninitialized = errors.New("provider not initialized")

// Uninitialized builds the error returned when a capability method runs
// before Initialize. It names the provider so the misuse is traceable.
func Uninitialized(name string) error {
	return fmt.Errorf("%s: %w", name, ErrUninitialized)
}

// Provider is the uniform lifecycle every adapter implements.
//
// Initialize must be called exactly once before any capability method; a
// second call is a no-op. HealthCheck reports false rather than failing when
// the provider is not ready. Dispose releases the underlying client state and
// marks the provider uninitialized again.
type Provider interface {
	Name() string
	Kind() Kind
	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) bool
	Dispose(ctx context.Context) error
}

// Lifecycle implements the ready/disposed bookkeeping shared by the in-tree
// providers. Embed it and call TransitionReady in Initialize, Guard at the
// top of every capability method, and TransitionDisposed in Dispose.
type Lifecycle struct {
	mu    sync.RWMutex
	ready bool
}

// TransitionReady marks the provider initialized. It returns false when the
// provider was already ready, letting Initialize treat the second call as a
// no-op.
func (l *Lifecycle) TransitionReady() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready {
		return false
	}
	l.ready = true
	return true
}

// TransitionDisposed marks the provider uninitialized again.
func (l *Lifecycle) TransitionDisposed() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = false
}

// Ready reports whether Initialize has completed.
func (l *Lifecycle) Ready() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ready
}

// Guard returns an uninitialized-provider error naming name when the
// provider is not ready.
func (l *Lifecycle) Guard(name string) error {
	if !l.Ready() {
		return Uninitialized(name)
	}
	return nil
}
