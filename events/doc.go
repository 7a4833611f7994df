// Package events defines the observability surface of a receptionist run.
// Hooks receive a callback for every notable moment in a turn: a tool
// executing, a tool failing, the assistant producing a reply, or the run
// erroring out. Event types carry run and conversation identifiers plus a
// timestamp and marshal to a stable JSON wire shape, so they can be logged,
// published on a broker, or replayed.
//
// Hook implementations run inline with the turn. Wrap third-party hooks
// with Guard so a panicking observer cannot take the conversation down.
package events
