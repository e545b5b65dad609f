package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("hunter2", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if !VerifySecret(hash, "hunter2") {
		t.Error("correct secret rejected")
	}
	if VerifySecret(hash, "hunter3") {
		t.Error("wrong secret accepted")
	}
	if VerifySecret("not-a-bcrypt-hash", "hunter2") {
		t.Error("malformed hash accepted")
	}
}

// Signed tokens are far longer than bcrypt's 72-byte input limit; the bearer
// helpers must still round-trip them.
func TestBearerSecretHandlesLongTokens(t *testing.T) {
	token := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 20)
	if len(token) <= 72 {
		t.Fatal("test token not long enough to exercise the limit")
	}

	if _, err := HashSecret(token, bcrypt.MinCost); err == nil {
		t.Fatal("expected plain bcrypt to reject oversized input")
	}

	hash, err := HashBearerSecret(token, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashBearerSecret: %v", err)
	}
	if !VerifyBearerSecret(hash, token) {
		t.Error("correct token rejected")
	}
	if VerifyBearerSecret(hash, token+"x") {
		t.Error("tampered token accepted")
	}
}
