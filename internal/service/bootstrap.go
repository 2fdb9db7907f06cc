package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// EnsureDefaultAdmin creates the configured administrator when no user exists yet.
func EnsureDefaultAdmin(ctx context.Context, users repository.UserRepository, cfg config.BootstrapConfig, bcryptCost int, logger *zap.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Debug("default admin not configured")
		return nil
	}
	count, err := users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password, bcryptCost)
	if err != nil {
		return fmt.Errorf("hash default admin password: %w", err)
	}
	admin := domain.Admin{User: domain.Account{
		ID:    uuid.NewString(),
		Email: normalizeEmail(cfg.Email),
		Name:  cfg.Name,
	}}
	if err := users.Create(ctx, &domain.Credential{Identity: admin, PasswordHash: hash}); err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}
	logger.Info("default admin created", zap.String("email", admin.User.Email))
	return nil
}
