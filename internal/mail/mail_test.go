package mail

import (
	"context"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPasswordResetRendering(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	r := NewRenderer("https://help.example.com/reset?src=mail")

	msg, err := r.PasswordReset(ResetData{
		Name:      "Ada",
		Email:     "ada@example.com",
		Token:     "tok.en",
		ExpiresAt: now.Add(15 * time.Minute),
		Now:       now,
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Contains(t, msg.Text, "valid for 15m0s")
	assert.Contains(t, msg.HTML, "<h1>Reset your password</h1>")
	assert.Contains(t, msg.HTML, "<strong>ada@example.com</strong>")
	assert.Contains(t, msg.HTML, `href="https://help.example.com/reset?src=mail&amp;token=tok.en"`)
}

func TestSMTPSenderComposesMultipart(t *testing.T) {
	s := NewSMTPSender("smtp.example.com:587", "noreply@example.com", "user", "pw")
	var sent []byte
	var rcpt []string
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Equal(t, "noreply@example.com", from)
		rcpt = to
		sent = msg
		return nil
	}

	err := s.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hi", Text: "plain", HTML: "<p>html</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, rcpt)
	assert.Contains(t, string(sent), "Subject: Hi\r\n")
	assert.Contains(t, string(sent), "multipart/alternative")
	assert.Contains(t, string(sent), "plain")
	assert.Contains(t, string(sent), "<p>html</p>")
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender(zaptest.NewLogger(t)).Send(context.Background(), Message{To: "x@y.z"}))
}
