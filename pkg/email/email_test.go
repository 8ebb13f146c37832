package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailComposesMessage(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "smtp.example.com", Port: "2525", Sender: "noreply@example.com", Password: "secret"})

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string
	var gotAuth smtp.Auth
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, string(msg)
		return nil
	}

	require.NoError(t, m.SendEmail("rob@email.com", "Achievement has been created", "You did it"))

	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"rob@email.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: rob@email.com\r\n")
	assert.Contains(t, gotMsg, "Subject: Achievement has been created\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nYou did it\r\n")
}

func TestSendEmailWithoutPasswordSkipsAuth(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "localhost", Port: "1025", Sender: "noreply@example.com"})

	m.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		assert.Nil(t, a)
		return nil
	}
	require.NoError(t, m.SendEmail("rob@email.com", "s", "b"))
}

func TestSendEmailWrapsFailure(t *testing.T) {
	m := NewMailer(SMTPConfig{Host: "localhost", Port: "1025", Sender: "noreply@example.com"})
	boom := errors.New("connection refused")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }

	err := m.SendEmail("rob@email.com", "s", "b")
	assert.ErrorIs(t, err, boom)
}

func TestEnabled(t *testing.T) {
	assert.False(t, SMTPConfig{}.Enabled())
	assert.True(t, SMTPConfig{Host: "h", Sender: "s"}.Enabled())
}
