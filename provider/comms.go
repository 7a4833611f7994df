package provider

import "context"

// CallOpts configures an outbound call.
type CallOpts struct {
	WebhookURL     string
	StatusCallback string
}

// MessageOpts configures an outbound SMS.
type MessageOpts struct {
	StatusCallback string
}

// Communicator is the communication capability contract: originating calls
// and messages, and delivering the agent's replies back onto an open
// session. Inbound traffic does not flow through this interface; providers
// deliver it as webhook payloads that the channel clients consume.
type Communicator interface {
	Provider

	// MakeCall originates a call and returns the provider's call SID.
	MakeCall(ctx context.Context, to string, opts CallOpts) (string, error)

	// Speak plays text to the remote party of an in-progress call.
	Speak(ctx context.Context, callSID, text string) error

	// EndCall terminates an in-progress call.
	EndCall(ctx context.Context, callSID string) error

	// SendSMS sends a text message and returns the provider's message SID.
	SendSMS(ctx context.Context, to, body string, opts MessageOpts) (string, error)

	// SendEmail sends an email with both HTML and plain-text bodies; either
	// may be empty.
	SendEmail(ctx context.Context, to, subject, html, text string) error
}
