package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tickhawk/helpdesk/internal/domain"
)

// TokenKind separates the three token purposes so one can never stand in for another.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
	KindReset   TokenKind = "reset"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	now        func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 15 * time.Minute
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// RefreshTTL is the lifetime of refresh tokens and session records.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

// Claims describes JWT payload.
type Claims struct {
	Kind          TokenKind   `json:"typ"`
	SessionID     string      `json:"sid,omitempty"`
	Email         string      `json:"email,omitempty"`
	Role          domain.Role `json:"role,omitempty"`
	DepartmentIDs []string    `json:"departmentIds,omitempty"`
	CompanyID     string      `json:"companyId,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccess signs an access token describing id, bound to session record sessionID.
func (tm *TokenManager) IssueAccess(id domain.Identity, sessionID string) (string, error) {
	account := id.Account()
	companyID, departmentIDs := domain.Affiliation(id)
	claims := &Claims{
		Kind:             KindAccess,
		SessionID:        sessionID,
		Email:            account.Email,
		Role:             id.Role(),
		DepartmentIDs:    departmentIDs,
		CompanyID:        companyID,
		RegisteredClaims: tm.registered(account.ID, tm.accessTTL),
	}
	return tm.sign(claims)
}

// IssueRefresh signs a refresh token for subjectID.
func (tm *TokenManager) IssueRefresh(subjectID, sessionID string) (string, error) {
	return tm.sign(&Claims{
		Kind:             KindRefresh,
		SessionID:        sessionID,
		RegisteredClaims: tm.registered(subjectID, tm.refreshTTL),
	})
}

// IssueReset signs a short lived password reset token.
func (tm *TokenManager) IssueReset(subjectID, email string) (string, time.Time, error) {
	claims := &Claims{
		Kind:             KindReset,
		Email:            email,
		RegisteredClaims: tm.registered(subjectID, tm.resetTTL),
	}
	token, err := tm.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, claims.ExpiresAt.Time, nil
}

// ParseAccess validates an access token.
func (tm *TokenManager) ParseAccess(token string) (*Claims, error) {
	return tm.parse(token, KindAccess)
}

// ParseRefresh validates a refresh token.
func (tm *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return tm.parse(token, KindRefresh)
}

// ParseReset validates a password reset token.
func (tm *TokenManager) ParseReset(token string) (*Claims, error) {
	return tm.parse(token, KindReset)
}

// ParseAccessAllowExpired checks the signature of an access token but not its expiry.
// Sign-out uses it so an expired token can still end its session.
func (tm *TokenManager) ParseAccessAllowExpired(token string) (*Claims, error) {
	return tm.parse(token, KindAccess, jwt.WithoutClaimsValidation())
}

func (tm *TokenManager) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := tm.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (tm *TokenManager) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

func (tm *TokenManager) parse(tokenStr string, kind TokenKind, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithTimeFunc(tm.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", domain.ErrInvalidToken)
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, fmt.Errorf("%w: expected %s token", domain.ErrInvalidToken, kind)
	}
	return claims, nil
}

// Identity rebuilds the caller from access token claims.
func (c *Claims) Identity() (domain.Identity, error) {
	id, err := domain.NewIdentity(c.Role, domain.Account{ID: c.Subject, Email: c.Email}, c.CompanyID, c.DepartmentIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return id, nil
}
