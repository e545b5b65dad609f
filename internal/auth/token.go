package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/crm-backend/internal/model"
)

// TokenUse names which signing secret a token must validate against. A token
// signed for one use never verifies under the other secret, so an access
// token can never be replayed as a refresh token or vice versa.
type TokenUse string

const (
	UseAccess  TokenUse = "access"
	UseRefresh TokenUse = "refresh"
)

// Payload is the claim set carried by every token: who the subject is, which
// table it lives in, and the role slot used for downstream authorization
// (admins carry their staff role, users their account type).
type Payload struct {
	SubjectID string
	Email     string
	Kind      model.Kind
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair bundles the two tokens returned by sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService signs and verifies HS256 JWTs. Access and refresh tokens use
// independent secrets and TTLs; reset tokens reuse the access secret with a
// dedicated short TTL.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

// NewTokenService builds a TokenService from the two signing secrets and the
// three lifetimes. Secrets are validated at config load, not here.
func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}
}

// IssueAccessToken signs a short-lived access token for p.
func (s *TokenService) IssueAccessToken(p Payload) (string, error) {
	return s.sign(p, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for p.
func (s *TokenService) IssueRefreshToken(p Payload) (string, error) {
	return s.sign(p, s.refreshSecret, s.refreshTTL)
}

// IssuePair signs the access and refresh tokens concurrently and joins both
// before returning. The two signing operations are independent; if either
// fails the whole pair is discarded.
func (s *TokenService) IssuePair(p Payload) (TokenPair, error) {
	var (
		wg             sync.WaitGroup
		pair           TokenPair
		accErr, refErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pair.AccessToken, accErr = s.IssueAccessToken(p)
	}()
	go func() {
		defer wg.Done()
		pair.RefreshToken, refErr = s.IssueRefreshToken(p)
	}()
	wg.Wait()
	if accErr != nil {
		return TokenPair{}, accErr
	}
	if refErr != nil {
		return TokenPair{}, refErr
	}
	return pair, nil
}

// IssueResetToken signs a short-lived password-reset token embedding the
// subject id and email. It validates against the access secret; there is no
// server-side store for reset tokens, expiry is the only revocation.
func (s *TokenService) IssueResetToken(subjectID, email string) (string, error) {
	return s.sign(Payload{SubjectID: subjectID, Email: email, Kind: model.KindUser}, s.accessSecret, s.resetTTL)
}

func (s *TokenService) sign(p Payload, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":       p.SubjectID,
		"email":     p.Email,
		"user_type": string(p.Kind),
		"role":      p.Role,
		// jti keeps consecutive tokens distinct even within one iat second,
		// so rotation always replaces the stored refresh hash with a new one.
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks signature and expiry of token against the secret matching
// use, and decodes its payload. It returns ErrTokenExpired for a
// well-signed but stale token and ErrInvalidToken for everything else.
func (s *TokenService) Verify(token string, use TokenUse) (Payload, error) {
	secret := s.accessSecret
	if use == UseRefresh {
		secret = s.refreshSecret
	}
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrTokenExpired
		}
		return Payload{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Payload{}, ErrInvalidToken
	}
	return payloadFromClaims(claims)
}

func payloadFromClaims(claims jwt.MapClaims) (Payload, error) {
	p := Payload{}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Payload{}, ErrInvalidToken
	}
	p.SubjectID = sub
	if v, ok := claims["email"].(string); ok {
		p.Email = v
	}
	if v, ok := claims["user_type"].(string); ok {
		p.Kind = model.Kind(v)
	}
	if v, ok := claims["role"].(string); ok {
		p.Role = v
	}
	if v, ok := claims["iat"].(float64); ok {
		p.IssuedAt = time.Unix(int64(v), 0).UTC()
	}
	if v, ok := claims["exp"].(float64); ok {
		p.ExpiresAt = time.Unix(int64(v), 0).UTC()
	}
	return p, nil
}
