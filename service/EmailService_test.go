package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"sodalis/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureMailer struct {
	messages []*gomail.Message
	err      error
}

func (c *captureMailer) DialAndSend(m ...*gomail.Message) error {
	c.messages = append(c.messages, m...)
	return c.err
}

func TestEmailService_FriendAdded(t *testing.T) {
	mailer := &captureMailer{}
	svc := NewEmailServiceWithMailer(mailer, "Sodalis <noreply@example.com>", discardLogger())

	require.NoError(t, svc.FriendAdded(context.Background(), "bob@example.com", "Bob", "<b>Alice</b>"))
	require.Len(t, mailer.messages, 1)

	m := mailer.messages[0]
	assert.Equal(t, []string{"bob@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"<b>Alice</b> added you as a friend"}, m.GetHeader("Subject"))

	var body bytes.Buffer
	_, err := m.WriteTo(&body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "&lt;b&gt;Alice&lt;/b&gt;")
}

func TestEmailService_SendFailure(t *testing.T) {
	svc := NewEmailServiceWithMailer(&captureMailer{err: errors.New("smtp down")}, "x@example.com", discardLogger())
	assert.Error(t, svc.FriendAdded(context.Background(), "bob@example.com", "Bob", "Alice"))
}

func TestEmailService_DisabledWithoutHost(t *testing.T) {
	svc := NewEmailService(config.SMTP{}, discardLogger())
	assert.NoError(t, svc.FriendAdded(context.Background(), "bob@example.com", "Bob", "Alice"))
}
