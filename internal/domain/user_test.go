package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	acct := Account{ID: "u1", Email: "a@x.com"}

	id, err := NewIdentity(RoleCustomer, acct, "acme", nil)
	require.NoError(t, err)
	assert.Equal(t, Customer{User: acct, CompanyID: "acme"}, id)
	assert.False(t, IsStaff(id))

	_, err = NewIdentity(RoleCustomer, acct, "", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	id, err = NewIdentity(RoleAgent, acct, "", []string{"d1"})
	require.NoError(t, err)
	agent, ok := id.(Agent)
	require.True(t, ok)
	assert.True(t, agent.InDepartment("d1"))
	assert.False(t, agent.InDepartment("d2"))
	company, depts := Affiliation(id)
	assert.Empty(t, company)
	assert.Equal(t, []string{"d1"}, depts)

	id, err = NewIdentity(RoleAdmin, acct, "", nil)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, id.Role())
	assert.True(t, IsStaff(id))

	_, err = NewIdentity("owner", acct, "", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	_, err = NewIdentity(RoleAdmin, Account{}, "", nil)
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestSessionTokenValid(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := SessionToken{Expiration: now.Add(time.Hour)}

	assert.True(t, rec.Valid(now))
	assert.False(t, rec.Valid(now.Add(time.Hour)))

	rec.Blocked = true
	assert.False(t, rec.Valid(now))
}
