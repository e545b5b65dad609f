package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/crm-backend/internal/model"
)

func newTestTokens() *TokenService {
	return NewTokenService("access-secret", "refresh-secret",
		15*time.Minute, 7*24*time.Hour, 10*time.Minute)
}

func TestIssuePairRoundTrip(t *testing.T) {
	s := newTestTokens()
	p := Payload{SubjectID: "u-1", Email: "a@b.c", Kind: model.KindUser, Role: model.AccountPremium}

	pair, err := s.IssuePair(p)
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("empty token in pair: %+v", pair)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	for _, tc := range []struct {
		token string
		use   TokenUse
	}{
		{pair.AccessToken, UseAccess},
		{pair.RefreshToken, UseRefresh},
	} {
		got, err := s.Verify(tc.token, tc.use)
		if err != nil {
			t.Fatalf("Verify(%s): %v", tc.use, err)
		}
		if got.SubjectID != p.SubjectID || got.Email != p.Email || got.Kind != p.Kind || got.Role != p.Role {
			t.Errorf("Verify(%s) payload = %+v, want subject/email/kind/role of %+v", tc.use, got, p)
		}
		if got.ExpiresAt.Before(got.IssuedAt) {
			t.Errorf("Verify(%s): exp %v before iat %v", tc.use, got.ExpiresAt, got.IssuedAt)
		}
	}
}

func TestConsecutiveTokensDiffer(t *testing.T) {
	s := newTestTokens()
	p := Payload{SubjectID: "u-1", Kind: model.KindUser}

	a, err := s.IssueRefreshToken(p)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	b, err := s.IssueRefreshToken(p)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if a == b {
		t.Fatal("two refresh tokens for the same payload must not be identical")
	}
}

func TestVerifyUseMismatch(t *testing.T) {
	s := newTestTokens()
	pair, err := s.IssuePair(Payload{SubjectID: "u-1", Kind: model.KindUser})
	if err != nil {
		t.Fatalf("IssuePair: %v", err)
	}

	if _, err := s.Verify(pair.AccessToken, UseRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token under refresh secret: err = %v, want ErrInvalidToken", err)
	}
	if _, err := s.Verify(pair.RefreshToken, UseAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token under access secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	s := NewTokenService("access-secret", "refresh-secret",
		-time.Minute, -time.Minute, -time.Minute)

	tok, err := s.IssueAccessToken(Payload{SubjectID: "u-1", Kind: model.KindUser})
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := s.Verify(tok, UseAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	s := newTestTokens()
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.Verify(raw, UseAccess); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestResetTokenValidatesAgainstAccessSecret(t *testing.T) {
	s := newTestTokens()

	tok, err := s.IssueResetToken("u-9", "reset@example.com")
	if err != nil {
		t.Fatalf("IssueResetToken: %v", err)
	}
	got, err := s.Verify(tok, UseAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.SubjectID != "u-9" || got.Email != "reset@example.com" || got.Kind != model.KindUser {
		t.Errorf("payload = %+v", got)
	}
	if _, err := s.Verify(tok, UseRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reset token under refresh secret: err = %v, want ErrInvalidToken", err)
	}
}
