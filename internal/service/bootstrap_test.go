package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap/zaptest"

	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/mail"
	"github.com/tickhawk/helpdesk/internal/repository/memory"
)

func TestEnsureDefaultAdmin(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUsers()
	logger := zaptest.NewLogger(t)
	cfg := config.BootstrapConfig{Email: "Root@Example.com", Password: "change-me", Name: "admin"}

	require.NoError(t, EnsureDefaultAdmin(ctx, users, config.BootstrapConfig{}, bcrypt.MinCost, logger))
	count, _ := users.Count(ctx)
	assert.Zero(t, count)

	require.NoError(t, EnsureDefaultAdmin(ctx, users, cfg, bcrypt.MinCost, logger))
	cred, err := users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, domain.RoleAdmin, cred.Identity.Role())
	assert.NoError(t, auth.ComparePassword(cred.PasswordHash, "change-me"))

	// A populated store is left alone.
	require.NoError(t, EnsureDefaultAdmin(ctx, users, config.BootstrapConfig{Email: "x@example.com", Password: "p"}, bcrypt.MinCost, logger))
	count, _ = users.Count(ctx)
	assert.Equal(t, 1, count)
}

type capturingSender struct {
	sent []mail.Message
}

func (s *capturingSender) Send(_ context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

func TestNotificationServiceSendsResetLink(t *testing.T) {
	sender := &capturingSender{}
	svc := NewNotificationService(mail.NewRenderer("https://desk.test/reset"), sender, zaptest.NewLogger(t))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	cred := &domain.Credential{Identity: customer("c1", "acme")}
	require.NoError(t, svc.SendPasswordReset(context.Background(), cred, "tok123", now.Add(15*time.Minute)))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "c1@customer.test", msg.To)
	assert.Contains(t, msg.Text, "https://desk.test/reset?token=tok123")
	assert.Contains(t, msg.HTML, "<a href=\"https://desk.test/reset?token=tok123\">")
}
