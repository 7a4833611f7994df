// Package slogx carries small helpers for building structured log attributes
// so call sites stay terse and attribute keys stay consistent.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns an attribute with key "error" and the error's message.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns an attribute holding the string form of value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// Conversation returns an attribute with key "conversation_id".
func Conversation(id string) slog.Attr {
	return slog.String("conversation_id", id)
}

// Channel returns an attribute with key "channel".
func Channel(ch fmt.Stringer) slog.Attr {
	return slog.String("channel", ch.String())
}

// Provider returns an attribute with key "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}
