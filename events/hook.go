package events

import (
	"context"
	"log/slog"
)

// Hook observes the lifecycle of a receptionist run. Implementations must be
// safe for concurrent use; hooks fire inline from whichever goroutine is
// executing the turn.
type Hook interface {
	OnToolExecute(ctx context.Context, event ToolInvoked)
	OnToolError(ctx context.Context, event ToolFailed)
	OnAssistantMessage(ctx context.Context, event AssistantReply)
	OnError(ctx context.Context, event Error)
}

// NoopHook ignores every event. Embed it to implement only the callbacks
// you care about.
type NoopHook struct{}

var _ Hook = NoopHook{}

func (NoopHook) OnToolExecute(context.Context, ToolInvoked)         {}
func (NoopHook) OnToolError(context.Context, ToolFailed)            {}
func (NoopHook) OnAssistantMessage(context.Context, AssistantReply) {}
func (NoopHook) OnError(context.Context, Error)                     {}

// Guard wraps hook so a panicking callback logs and is swallowed instead of
// unwinding into the turn that fired it. A nil hook becomes a NoopHook.
func Guard(hook Hook) Hook {
	if hook == nil {
		return NoopHook{}
	}
	if _, ok := hook.(guardedHook); ok {
		return hook
	}
	return guardedHook{inner: hook}
}

type guardedHook struct {
	inner Hook
}

func (g guardedHook) OnToolExecute(ctx context.Context, event ToolInvoked) {
	defer recoverHook("OnToolExecute")
	g.inner.OnToolExecute(ctx, event)
}

func (g guardedHook) OnToolError(ctx context.Context, event ToolFailed) {
	defer recoverHook("OnToolError")
	g.inner.OnToolError(ctx, event)
}

func (g guardedHook) OnAssistantMessage(ctx context.Context, event AssistantReply) {
	defer recoverHook("OnAssistantMessage")
	g.inner.OnAssistantMessage(ctx, event)
}

func (g guardedHook) OnError(ctx context.Context, event Error) {
	defer recoverHook("OnError")
	g.inner.OnError(ctx, event)
}

func recoverHook(callback string) {
	if r := recover(); r != nil {
		slog.Error("hook panicked", slog.String("callback", callback), slog.Any("panic", r))
	}
}
