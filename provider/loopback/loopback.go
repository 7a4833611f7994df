// Package loopback implements the communication capability entirely
// in-process. Outbound traffic is recorded instead of transmitted, which
// makes it the reference provider for tests, examples, and local
// development; a real telephony backend is a drop-in replacement behind the
// same interface.
package loopback

import (
	"context"
	"fmt"
	"sync"

	"github.com/casualjim/frontdesk/provider"
)

// Call is one originated call.
type Call struct {
	SID    string
	To     string
	Opts   provider.CallOpts
	Spoken []string
	Ended  bool
}

// SMS is one sent text message.
type SMS struct {
	SID  string
	To   string
	Body string
	Opts provider.MessageOpts
}

// Email is one sent email.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Provider records everything a receptionist sends.
type Provider struct {
	provider.Lifecycle

	mu     sync.Mutex
	seq    int
	calls  map[string]*Call
	sms    []SMS
	emails []Email
}

var _ provider.Communicator = (*Provider)(nil)

// New returns an uninitialized loopback provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string        { return "loopback" }
func (p *Provider) Kind() provider.Kind { return provider.KindCommunication }

func (p *Provider) Initialize(_ context.Context) error {
	if !p.TransitionReady() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = make(map[string]*Call)
	return nil
}

func (p *Provider) HealthCheck(_ context.Context) bool {
	return p.Ready()
}

func (p *Provider) Dispose(_ context.Context) error {
	p.TransitionDisposed()
	return nil
}

func (p *Provider) MakeCall(_ context.Context, to string, opts provider.CallOpts) (string, error) {
	if err := p.Guard(p.Name()); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	sid := fmt.Sprintf("CA%04d", p.seq)
	p.calls[sid] = &Call{SID: sid, To: to, Opts: opts}
	return sid, nil
}

func (p *Provider) Speak(_ context.Context, callSID, text string) error {
	if err := p.Guard(p.Name()); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	call, ok := p.calls[callSID]
	if !ok {
		// Inbound calls are known only to the remote side; register them on
		// first use so replies on webhook-initiated sessions still record.
		call = &Call{SID: callSID}
		p.calls[callSID] = call
	}
	if call.Ended {
		return fmt.Errorf("call %s already ended", callSID)
	}
	call.Spoken = append(call.Spoken, text)
	return nil
}

func (p *Provider) EndCall(_ context.Context, callSID string) error {
	if err := p.Guard(p.Name()); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	call, ok := p.calls[callSID]
	if !ok {
		return fmt.Errorf("unknown call %s", callSID)
	}
	call.Ended = true
	return nil
}

func (p *Provider) SendSMS(_ context.Context, to, body string, opts provider.MessageOpts) (string, error) {
	if err := p.Guard(p.Name()); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	sid := fmt.Sprintf("SM%04d", p.seq)
	p.sms = append(p.sms, SMS{SID: sid, To: to, Body: body, Opts: opts})
	return sid, nil
}

func (p *Provider) SendEmail(_ context.Context, to, subject, html, text string) error {
	if err := p.Guard(p.Name()); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.emails = append(p.emails, Email{To: to, Subject: subject, HTML: html, Text: text})
	return nil
}

// CallBySID returns a copy of the recorded call state.
func (p *Provider) CallBySID(sid string) (Call, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	call, ok := p.calls[sid]
	if !ok {
		return Call{}, false
	}
	out := *call
	out.Spoken = append([]string(nil), call.Spoken...)
	return out, true
}

// SentSMS returns a copy of every recorded SMS in send order.
func (p *Provider) SentSMS() []SMS {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SMS(nil), p.sms...)
}

// SentEmails returns a copy of every recorded email in send order.
func (p *Provider) SentEmails() []Email {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Email(nil), p.emails...)
}
