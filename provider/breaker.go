package provider

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

// BreakerConfig tunes the circuit breaker wrapped around a Model.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the circuit
	// opens.
	MaxFailures uint32
	// Timeout is how long the circuit stays open before a half-open probe.
	Timeout time.Duration
	// Interval is the closed-state period after which failure counts reset.
	Interval time.Duration
}

// Breaker wraps a Model with a circuit breaker. When the backend fails
// repeatedly the circuit opens and turns fail fast instead of stacking up
// behind a dead endpoint. The orchestrator still never retries; this only
// changes how quickly a failing provider reports it.
type Breaker struct {
	inner   Model
	breaker *gobreaker.CircuitBreaker[Response]
}

var _ Model = (*Breaker)(nil)

// NewBreaker wraps inner. Zero-valued config fields fall back to defaults.
func NewBreaker(inner Model, cfg BreakerConfig) *Breaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        "model:" + inner.Name(),
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("model circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Breaker{inner: inner, breaker: cb}
}

func (b *Breaker) Name() string { return b.inner.Name() }
func (b *Breaker) Kind() Kind   { return b.inner.Kind() }

func (b *Breaker) Initialize(ctx context.Context) error {
	return b.inner.Initialize(ctx)
}

// HealthCheck reports false while the circuit is open even when the inner
// provider considers itself healthy.
func (b *Breaker) HealthCheck(ctx context.Context) bool {
	if b.breaker.State() == gobreaker.StateOpen {
		return false
	}
	return b.inner.HealthCheck(ctx)
}

func (b *Breaker) Dispose(ctx context.Context) error {
	return b.inner.Dispose(ctx)
}

func (b *Breaker) Complete(ctx context.Context, req Request) (Response, error) {
	return b.breaker.Execute(func() (Response, error) {
		return b.inner.Complete(ctx, req)
	})
}
