package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// Secrets hashed here fall into two groups: login passwords and bearer
// secrets at rest (refresh tokens, OTP codes). Both use bcrypt so a leaked
// table row is useless on its own.

// HashSecret returns the bcrypt hash of plain using the given cost.
func HashSecret(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret safely compares a bcrypt hash and a plain secret. A mismatch
// is reported as false, never as an error.
func VerifySecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashBearerSecret hashes a bearer secret (refresh token) for storage at
// rest. bcrypt only accepts inputs up to 72 bytes and a signed token is far
// longer, so the token is reduced to a hex SHA-256 digest first.
func HashBearerSecret(token string, cost int) (string, error) {
	return HashSecret(digestBearer(token), cost)
}

// VerifyBearerSecret compares a stored bearer hash against a presented
// token. A mismatch is reported as false, never as an error.
func VerifyBearerSecret(hash, token string) bool {
	return VerifySecret(hash, digestBearer(token))
}

func digestBearer(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
