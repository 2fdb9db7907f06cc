package domain

import "time"

// SessionToken is the persisted record of an issued token pair.
// Tokens are kept as digests; the plaintext never reaches storage.
type SessionToken struct {
	ID                 string
	SubjectID          string
	AccessTokenDigest  string
	RefreshTokenDigest string
	Blocked            bool
	Expiration         time.Time
	CreatedAt          time.Time
}

// Valid reports whether the record may still be used to refresh.
func (s *SessionToken) Valid(now time.Time) bool {
	return !s.Blocked && s.Expiration.After(now)
}

// TokenPair is what a successful sign-in or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
