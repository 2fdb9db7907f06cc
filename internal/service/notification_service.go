package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/mail"
)

// NotificationService renders and sends account mail.
type NotificationService struct {
	renderer *mail.Renderer
	sender   mail.Sender
	logger   *zap.Logger
	now      func() time.Time
}

var _ PasswordResetNotifier = (*NotificationService)(nil)

// NewNotificationService creates the service.
func NewNotificationService(renderer *mail.Renderer, sender mail.Sender, logger *zap.Logger) *NotificationService {
	return &NotificationService{renderer: renderer, sender: sender, logger: logger, now: time.Now}
}

// SendPasswordReset mails the reset link to the credential owner.
func (n *NotificationService) SendPasswordReset(ctx context.Context, cred *domain.Credential, token string, expiresAt time.Time) error {
	account := cred.Identity.Account()
	msg, err := n.renderer.PasswordReset(mail.ResetData{
		Name:      account.Name,
		Email:     account.Email,
		Token:     token,
		ExpiresAt: expiresAt,
		Now:       n.now(),
	})
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}
	n.logger.Info("password reset mail sent", zap.String("user_id", account.ID))
	return nil
}
