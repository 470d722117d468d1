package smtp

import (
	"net/smtp"
	"testing"

	"github.com/go-api-auth/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmail_ComposesMessage(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail.local", SMTPPort: "1025", SMTPFrom: "noreply@example.com"}).(*mailer)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	require.NoError(t, m.SendEmail("a@b.com", "Your code", "1234567890"))
	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Nil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"a@b.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your code\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n1234567890")
}

func TestSendEmail_UsesAuthWhenConfigured(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "mail.local", SMTPPort: "587", SMTPUsername: "u", SMTPPassword: "p"}).(*mailer)
	var gotAuth smtp.Auth
	m.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}
	require.NoError(t, m.SendEmail("a@b.com", "s", "b"))
	assert.NotNil(t, gotAuth)
}

func TestSendEmail_RejectsHeaderInjection(t *testing.T) {
	m := NewMailer(&config.Config{}).(*mailer)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.Error(t, m.SendEmail("a@b.com\r\nBcc: x@y.com", "s", "b"))
}
