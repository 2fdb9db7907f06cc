package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap/zaptest"

	"github.com/tickhawk/helpdesk/internal/auth"
	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/domain"
	"github.com/tickhawk/helpdesk/internal/repository/memory"
)

type sessionFixture struct {
	svc      *SessionService
	users    *memory.Users
	sessions *memory.Sessions
	notifier *fakeNotifier
	tokens   *auth.TokenManager
	clock    *clock
}

func newSessionFixture(t *testing.T, rotate bool) *sessionFixture {
	t.Helper()
	clk := newClock()
	cfg := config.AuthConfig{
		JWTSecret:           "test-secret",
		AccessTokenTTL:      time.Hour,
		SessionTTL:          24 * time.Hour,
		PasswordResetTTL:    15 * time.Minute,
		BcryptCost:          bcrypt.MinCost,
		RotateRefreshTokens: rotate,
	}
	f := &sessionFixture{
		users:    memory.NewUsers(),
		sessions: memory.NewSessions(),
		notifier: &fakeNotifier{},
		tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.SessionTTL, cfg.PasswordResetTTL).WithClock(clk.Now),
		clock:    clk,
	}
	f.svc = NewSessionService(cfg, SessionDependencies{
		Users:    f.users,
		Sessions: f.sessions,
		Notifier: f.notifier,
		Tokens:   f.tokens,
		Logger:   zaptest.NewLogger(t),
		Now:      clk.Now,
	})
	seedUser(t, f.users, customer("c1", "acme"), "s3cret-pass")
	return f
}

func TestIssueSessionRejectsBadCredentials(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.IssueSession(ctx, "c1@customer.test", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Unknown users get the same answer as a wrong password.
	_, err = f.svc.IssueSession(ctx, "nobody@customer.test", "s3cret-pass")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestIssueSessionRecordsDigests(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "  C1@Customer.test ", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec, err := f.sessions.FindByPair(ctx, auth.Digest(pair.AccessToken), auth.Digest(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "c1", rec.SubjectID)
	assert.False(t, rec.Blocked)
	assert.Equal(t, f.clock.Now().Add(24*time.Hour), rec.Expiration)
	assert.NotEqual(t, pair.AccessToken, rec.AccessTokenDigest)

	id, err := f.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, customer("c1", "acme"), id)
}

func TestRefreshKeepsRefreshToken(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	next, err := f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, next.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = f.svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)

	// The refreshed access token can be refreshed again.
	again, err := f.svc.RefreshSession(ctx, next.AccessToken, next.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, again.RefreshToken)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestRefreshRejectsForeignPairs(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()
	seedUser(t, f.users, customer("c2", "acme"), "other-pass")

	first, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)
	second, err := f.svc.IssueSession(ctx, "c2@customer.test", "other-pass")
	require.NoError(t, err)

	_, err = f.svc.RefreshSession(ctx, first.AccessToken, second.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = f.svc.RefreshSession(ctx, "garbage", first.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefreshFailsAfterSessionExpires(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	_, err = f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRefreshFailsForDeletedUser(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)
	f.users.Delete("c1")

	_, err = f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRevokeSessionEndsRefreshAndAccess(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)
	refreshed, err := f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)

	// Signing out with the refreshed access token removes the original record.
	require.NoError(t, f.svc.RevokeSession(ctx, refreshed.AccessToken))
	assert.Equal(t, 0, f.sessions.Len())

	_, err = f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.svc.Authenticate(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// Unknown tokens are ignored.
	assert.NoError(t, f.svc.RevokeSession(ctx, "not-a-token"))
}

func TestRotatingRefreshBlocksOldPair(t *testing.T) {
	f := newSessionFixture(t, true)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)

	next, err := f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = f.svc.RefreshSession(ctx, next.AccessToken, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRotatingRefreshAllowsOneConcurrentWinner(t *testing.T) {
	f := newSessionFixture(t, true)
	ctx := context.Background()

	pair, err := f.svc.IssueSession(ctx, "c1@customer.test", "s3cret-pass")
	require.NoError(t, err)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestForgotPassword(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()

	require.NoError(t, f.svc.ForgotPassword(ctx, "c1@customer.test"))
	token := f.notifier.tokens["c1@customer.test"]
	require.NotEmpty(t, token)

	claims, err := f.tokens.ParseReset(token)
	require.NoError(t, err)
	assert.Equal(t, "c1", claims.Subject)

	// A reset token is not an access token.
	_, err = f.svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "ghost@customer.test"), domain.ErrUserNotFound)

	f.notifier.err = errors.New("smtp down")
	assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "c1@customer.test"), domain.ErrUserNotFound)
}

func TestRefreshFailsOnceRecordIsBlocked(t *testing.T) {
	f := newSessionFixture(t, false)
	ctx := context.Background()
	seedUser(t, f.users, customer("a", "acme"), "secret")

	pair, err := f.svc.IssueSession(ctx, "a@customer.test", "secret")
	require.NoError(t, err)

	next, err := f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, next.RefreshToken)

	rec, err := f.sessions.FindByPair(ctx, auth.Digest(pair.AccessToken), auth.Digest(pair.RefreshToken))
	require.NoError(t, err)
	require.NotNil(t, rec)
	blocked, err := f.sessions.Block(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, blocked)

	f.clock.Advance(time.Millisecond)
	_, err = f.svc.RefreshSession(ctx, pair.AccessToken, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = f.svc.RefreshSession(ctx, next.AccessToken, next.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
