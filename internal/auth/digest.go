package auth

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest is the at-rest form of a token. Lookups compare digests, never plaintext.
func Digest(token string) string {
	sum := blake3.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
