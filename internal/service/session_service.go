package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository"
)

// PasswordResetNotifier delivers a reset token to its owner.
type PasswordResetNotifier interface {
	SendPasswordReset(ctx context.Context, cred *domain.Credential, token string, expiresAt time.Time) error
}

// SessionService issues, refreshes and revokes token pairs.
type SessionService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	notifier   PasswordResetNotifier
	tokens     *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	sessionTTL time.Duration
	rotate     bool
	now        func() time.Time
}

// SessionDependencies encapsulates collaborators for the session service.
type SessionDependencies struct {
	Users    repository.UserRepository
	Sessions repository.SessionRepository
	Notifier PasswordResetNotifier
	Tokens   *auth.TokenManager
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewSessionService builds the service.
func NewSessionService(cfg config.AuthConfig, deps SessionDependencies) *SessionService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		users:      deps.Users,
		sessions:   deps.Sessions,
		notifier:   deps.Notifier,
		tokens:     deps.Tokens,
		logger:     deps.Logger,
		bcryptCost: cfg.BcryptCost,
		sessionTTL: cfg.SessionTTL,
		rotate:     cfg.RotateRefreshTokens,
		now:        now,
	}
}

// IssueSession verifies credentials and records a new session.
func (s *SessionService) IssueSession(ctx context.Context, email, password string) (domain.TokenPair, error) {
	cred, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign in: %w", err)
	}
	if cred == nil {
		auth.CompareDummy(s.bcryptCost, password)
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}
	if err := auth.ComparePassword(cred.PasswordHash, password); err != nil {
		return domain.TokenPair{}, domain.ErrInvalidCredentials
	}

	pair, err := s.startSession(ctx, cred.Identity)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign in: %w", err)
	}
	s.logger.Info("session issued", zap.String("user_id", cred.Identity.Account().ID))
	return pair, nil
}

// RefreshSession mints a new access token for a live session. Without rotation the refresh
// token is returned unchanged; with rotation the old record is blocked and a new pair issued.
func (s *SessionService) RefreshSession(ctx context.Context, accessToken, refreshToken string) (domain.TokenPair, error) {
	rec, err := s.lookupPair(ctx, accessToken, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if rec == nil || !rec.Valid(s.now()) {
		return domain.TokenPair{}, domain.ErrInvalidToken
	}

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if claims.Subject != rec.SubjectID {
		return domain.TokenPair{}, domain.ErrInvalidToken
	}

	cred, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	if cred == nil {
		return domain.TokenPair{}, domain.ErrInvalidToken
	}

	if s.rotate {
		blocked, err := s.sessions.Block(ctx, rec.ID)
		if err != nil {
			return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
		}
		if !blocked {
			// Another refresh consumed this pair first.
			return domain.TokenPair{}, domain.ErrInvalidToken
		}
		pair, err := s.startSession(ctx, cred.Identity)
		if err != nil {
			return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
		}
		return pair, nil
	}

	access, err := s.tokens.IssueAccess(cred.Identity, rec.ID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}

// RevokeSession deletes the session the access token belongs to. Unknown tokens are ignored.
func (s *SessionService) RevokeSession(ctx context.Context, accessToken string) error {
	sessionID := ""
	if claims, err := s.tokens.ParseAccessAllowExpired(accessToken); err == nil {
		sessionID = claims.SessionID
	}
	removed, err := s.sessions.DeleteByAccess(ctx, auth.Digest(accessToken), sessionID)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.logger.Debug("session revoked", zap.Int64("removed", removed))
	return nil
}

// ForgotPassword sends a short lived reset token to the account owner.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	cred, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if cred == nil {
		return domain.ErrUserNotFound
	}

	account := cred.Identity.Account()
	token, expiresAt, err := s.tokens.IssueReset(account.ID, account.Email)
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := s.notifier.SendPasswordReset(ctx, cred, token, expiresAt); err != nil {
		s.logger.Warn("password reset notification failed",
			zap.String("user_id", account.ID),
			zap.Error(err))
		return domain.ErrUserNotFound
	}
	return nil
}

// Authenticate resolves an access token to its identity. The session it names must still be live.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (domain.Identity, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	rec, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if rec == nil || !rec.Valid(s.now()) || rec.SubjectID != claims.Subject {
		return nil, domain.ErrInvalidToken
	}
	return claims.Identity()
}

// lookupPair finds the record for the pair. The access token issued at sign-in matches the
// stored digest directly; access tokens minted by refresh reach their record through the
// session id they carry.
func (s *SessionService) lookupPair(ctx context.Context, accessToken, refreshToken string) (*domain.SessionToken, error) {
	refreshDigest := auth.Digest(refreshToken)
	rec, err := s.sessions.FindByPair(ctx, auth.Digest(accessToken), refreshDigest)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if rec != nil {
		return rec, nil
	}

	claims, err := s.tokens.ParseAccessAllowExpired(accessToken)
	if err != nil {
		return nil, nil
	}
	rec, err = s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if rec == nil || rec.RefreshTokenDigest != refreshDigest {
		return nil, nil
	}
	return rec, nil
}

func (s *SessionService) startSession(ctx context.Context, id domain.Identity) (domain.TokenPair, error) {
	sessionID := uuid.NewString()
	subject := id.Account().ID

	access, err := s.tokens.IssueAccess(id, sessionID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.tokens.IssueRefresh(subject, sessionID)
	if err != nil {
		return domain.TokenPair{}, err
	}

	now := s.now()
	rec := &domain.SessionToken{
		ID:                 sessionID,
		SubjectID:          subject,
		AccessTokenDigest:  auth.Digest(access),
		RefreshTokenDigest: auth.Digest(refresh),
		Blocked:            false,
		Expiration:         now.Add(s.sessionTTL),
		CreatedAt:          now,
	}
	if err := s.sessions.Create(ctx, rec); err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
