package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickhawk/helpdesk/internal/domain"
)

func newTestManager(now *time.Time) *TokenManager {
	return NewTokenManager("test-secret", time.Hour, 24*time.Hour, 15*time.Minute).
		WithClock(func() time.Time { return *now })
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&now)
	agent := domain.Agent{User: domain.Account{ID: "u1", Email: "a@x.com"}, DepartmentIDs: []string{"d1", "d2"}}

	token, err := tm.IssueAccess(agent, "sess-1")
	require.NoError(t, err)

	claims, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, domain.RoleAgent, claims.Role)
	assert.NotEmpty(t, claims.ID)

	id, err := claims.Identity()
	require.NoError(t, err)
	assert.Equal(t, agent, id)
}

func TestAccessTokensAreUnique(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&now)
	admin := domain.Admin{User: domain.Account{ID: "u1"}}

	a, err := tm.IssueAccess(admin, "s")
	require.NoError(t, err)
	b, err := tm.IssueAccess(admin, "s")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenKindsDoNotMix(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&now)

	refresh, err := tm.IssueRefresh("u1", "s")
	require.NoError(t, err)
	reset, _, err := tm.IssueReset("u1", "a@x.com")
	require.NoError(t, err)

	_, err = tm.ParseAccess(refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = tm.ParseRefresh(reset)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	claims, err := tm.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
}

func TestExpiredTokens(t *testing.T) {
	now := time.Now()
	tm := newTestManager(&now)
	customer := domain.Customer{User: domain.Account{ID: "u1"}, CompanyID: "c1"}

	access, err := tm.IssueAccess(customer, "s")
	require.NoError(t, err)
	_, resetExp, err := tm.IssueReset("u1", "a@x.com")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), resetExp, time.Second)

	now = now.Add(2 * time.Hour)
	_, err = tm.ParseAccess(access)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	claims, err := tm.ParseAccessAllowExpired(access)
	require.NoError(t, err)
	assert.Equal(t, "s", claims.SessionID)
}

func TestForeignSignatureRejected(t *testing.T) {
	now := time.Now()
	other := NewTokenManager("other-secret", 0, 0, 0)
	token, err := other.IssueAccess(domain.Admin{User: domain.Account{ID: "u1"}}, "s")
	require.NoError(t, err)

	_, err = newTestManager(&now).ParseAccessAllowExpired(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestDigest(t *testing.T) {
	assert.Equal(t, Digest("abc"), Digest("abc"))
	assert.NotEqual(t, Digest("abc"), Digest("abd"))
	assert.Len(t, Digest("abc"), 64)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("secret", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "secret"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	CompareDummy(4, "anything")
}
