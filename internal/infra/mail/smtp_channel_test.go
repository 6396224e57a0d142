package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("noreply@example.com", "anna@example.com", "Reminder: Week 3", "Hi Anna")
	require.NoError(t, err)

	assert.Equal(t, []string{"Reminder: Week 3"}, msg.GetGenHeader(gomail.HeaderSubject))
	to := msg.GetToString()
	require.Len(t, to, 1)
	assert.Contains(t, to[0], "anna@example.com")
}

func TestBuildMessage_RejectsInvalidAddresses(t *testing.T) {
	_, err := BuildMessage("noreply@example.com", "not an address", "s", "b")
	assert.ErrorContains(t, err, "invalid recipient address")

	_, err = BuildMessage("", "anna@example.com", "s", "b")
	assert.ErrorContains(t, err, "invalid sender address")
}

func TestNewSMTPChannel(t *testing.T) {
	ch, err := NewSMTPChannel(SMTPOptions{
		Host:      "smtp.example.com",
		Port:      587,
		Username:  "trigger",
		Password:  "secret",
		From:      "noreply@example.com",
		Timeout:   5 * time.Second,
		TLSPolicy: "mandatory",
	})
	require.NoError(t, err)
	assert.NotNil(t, ch)
}

func TestTLSPolicy(t *testing.T) {
	assert.Equal(t, gomail.NoTLS, tlsPolicy("none"))
	assert.Equal(t, gomail.TLSOpportunistic, tlsPolicy("opportunistic"))
	assert.Equal(t, gomail.TLSMandatory, tlsPolicy("mandatory"))
	assert.Equal(t, gomail.TLSMandatory, tlsPolicy(""))
}

type countingChannel struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingChannel) Send(context.Context, string, string, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func TestRateLimitedChannel_PassesThrough(t *testing.T) {
	inner := &countingChannel{err: errors.New("550 rejected")}
	ch := NewRateLimitedChannel(inner, 1000)

	err := ch.Send(context.Background(), "a@example.com", "s", "b")

	assert.EqualError(t, err, "550 rejected")
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedChannel_DisabledReturnsInner(t *testing.T) {
	inner := &countingChannel{}
	assert.Same(t, inner, NewRateLimitedChannel(inner, 0))
}

func TestRateLimitedChannel_HonoursContext(t *testing.T) {
	inner := &countingChannel{}
	ch := NewRateLimitedChannel(inner, 0.001) // burst of one, then ~17 minutes per token

	require.NoError(t, ch.Send(context.Background(), "a@example.com", "s", "b"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ch.Send(ctx, "b@example.com", "s", "b")

	assert.ErrorContains(t, err, "rate limit wait")
	assert.Equal(t, 1, inner.calls)
}
