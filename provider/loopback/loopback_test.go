package loopback

import (
	"context"
	"testing"

	"github.com/casualjim/frontdesk/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardBeforeInitialize(t *testing.T) {
	p := New()

	_, err := p.MakeCall(context.Background(), "+15550100", provider.CallOpts{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loopback")
	assert.False(t, p.HealthCheck(context.Background()))
}

func TestCallLifecycle(t *testing.T) {
	p := New()
	require.NoError(t, p.Initialize(context.Background()))
	assert.True(t, p.HealthCheck(context.Background()))

	sid, err := p.MakeCall(context.Background(), "+15550100", provider.CallOpts{WebhookURL: "https://example.com/hook"})
	require.NoError(t, err)
	assert.Equal(t, "CA0001", sid)

	require.NoError(t, p.Speak(context.Background(), sid, "hello"))
	require.NoError(t, p.Speak(context.Background(), sid, "goodbye"))
	require.NoError(t, p.EndCall(context.Background(), sid))

	call, ok := p.CallBySID(sid)
	require.True(t, ok)
	assert.Equal(t, "+15550100", call.To)
	assert.Equal(t, []string{"hello", "goodbye"}, call.Spoken)
	assert.True(t, call.Ended)

	assert.Error(t, p.Speak(context.Background(), sid, "too late"))
	assert.Error(t, p.EndCall(context.Background(), "CA9999"))
}

func TestSpeakRegistersInboundCalls(t *testing.T) {
	p := New()
	require.NoError(t, p.Initialize(context.Background()))

	require.NoError(t, p.Speak(context.Background(), "CAinbound", "welcome"))

	call, ok := p.CallBySID("CAinbound")
	require.True(t, ok)
	assert.Equal(t, []string{"welcome"}, call.Spoken)
}

func TestMessaging(t *testing.T) {
	p := New()
	require.NoError(t, p.Initialize(context.Background()))

	sid, err := p.SendSMS(context.Background(), "+15550100", "your table is ready", provider.MessageOpts{})
	require.NoError(t, err)
	assert.Equal(t, "SM0001", sid)

	require.NoError(t, p.SendEmail(context.Background(), "guest@example.com", "Booking", "<p>confirmed</p>", "confirmed"))

	sms := p.SentSMS()
	require.Len(t, sms, 1)
	assert.Equal(t, "your table is ready", sms[0].Body)

	emails := p.SentEmails()
	require.Len(t, emails, 1)
	assert.Equal(t, "Booking", emails[0].Subject)
}

func TestDisposeRevokesAccess(t *testing.T) {
	p := New()
	require.NoError(t, p.Initialize(context.Background()))
	require.NoError(t, p.Dispose(context.Background()))

	_, err := p.SendSMS(context.Background(), "+15550100", "nope", provider.MessageOpts{})
	assert.Error(t, err)
}
