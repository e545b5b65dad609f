package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/crm-backend/internal/model"
)

// PrincipalStore is the session layer's view of the users and admins tables.
// Lookups return sql.ErrNoRows on a miss. Secret columns (password hash,
// refresh hash) are only projected when includeSecret is set; sign-in is the
// one caller that needs them.
type PrincipalStore interface {
	FindByEmail(ctx context.Context, kind model.Kind, email string, includeSecret bool) (*model.Principal, error)
	FindByID(ctx context.Context, kind model.Kind, id string) (*model.Principal, error)
	// SaveRefreshHash overwrites the stored refresh-token hash (nil clears
	// it) and, when lastLogin is non-nil, stamps the last_login column.
	SaveRefreshHash(ctx context.Context, kind model.Kind, id string, hash *string, lastLogin *time.Time) error
	UpdatePassword(ctx context.Context, kind model.Kind, id, passwordHash string) error
}

// VisitRecorder records a successful user sign-in as an audit visit.
type VisitRecorder interface {
	Record(ctx context.Context, userID, ipAddress string, cls Classification) error
}

// Mailer delivers auth-related mail. Calls are fire-and-forget from the
// session layer's perspective: failures are logged, never surfaced to the
// signing-in client.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, email, token string) error
	SendOtpEmail(ctx context.Context, email, code, mailContext string) error
}

// SessionService orchestrates sign-in, token refresh, sign-out and the
// password-reset flows across both principal kinds. It owns the invariant
// that a principal has at most one live refresh token: the bcrypt hash
// stored on the principal row is the only session state, and every rotation
// or sign-out replaces or clears it.
type SessionService struct {
	store      PrincipalStore
	tokens     *TokenService
	visits     VisitRecorder
	mailer     Mailer
	bcryptCost int
}

// NewSessionService wires the session core. visits and mailer may be nil in
// tests; the service treats them as best-effort collaborators either way.
func NewSessionService(store PrincipalStore, tokens *TokenService, visits VisitRecorder, mailer Mailer, bcryptCost int) *SessionService {
	return &SessionService{store: store, tokens: tokens, visits: visits, mailer: mailer, bcryptCost: bcryptCost}
}

// SignInRequest carries the credential pair plus the request metadata used
// for audit visit records.
type SignInRequest struct {
	Email     string
	Password  string
	UserType  string // "user" | "admin"
	IPAddress string
	UserAgent string
}

// SignIn verifies a credential pair and opens a session: it issues an
// access+refresh pair and persists the bcrypt hash of the new refresh token
// together with last_login. The hash write happens after token issuance, so
// a signing failure can never leave a stale hash behind.
//
// Unknown email and wrong password both come back as ErrInvalidCredentials.
// An inactive user with correct credentials gets ErrAccountInactive instead.
func (s *SessionService) SignIn(ctx context.Context, req SignInRequest) (TokenPair, error) {
	kind := model.Kind(strings.ToLower(strings.TrimSpace(req.UserType)))
	if !kind.Valid() {
		return TokenPair{}, fmt.Errorf("%w: user type must be %q or %q", ErrInvalidRequest, model.KindUser, model.KindAdmin)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	p, err := s.store.FindByEmail(ctx, kind, email, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("lookup principal: %w", err)
	}
	if !VerifySecret(p.PasswordHash, req.Password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	if kind == model.KindUser {
		if p.Status == model.StatusInactive {
			return TokenPair{}, ErrAccountInactive
		}
		// Visits are audit data: record asynchronously and never let a
		// recorder failure fail the sign-in.
		s.recordVisit(p.ID, req.IPAddress, req.UserAgent)
	}

	pair, err := s.tokens.IssuePair(Payload{SubjectID: p.ID, Email: p.Email, Kind: kind, Role: p.Role})
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}
	if err := s.storeRefreshHash(ctx, kind, p.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair and rotates
// the stored hash, permanently invalidating the presented token. A token
// that verifies cryptographically but no longer matches the stored hash is
// treated as revoked; "unknown id" and "never signed in" are deliberately
// indistinguishable.
func (s *SessionService) RefreshToken(ctx context.Context, presented string) (TokenPair, error) {
	payload, err := s.tokens.Verify(presented, UseRefresh)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}
	if !payload.Kind.Valid() {
		return TokenPair{}, ErrInvalidToken
	}

	p, err := s.store.FindByID(ctx, payload.Kind, payload.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, fmt.Errorf("lookup principal: %w", err)
	}
	if p.RefreshTokenHash == nil || !VerifyBearerSecret(*p.RefreshTokenHash, presented) {
		return TokenPair{}, ErrInvalidToken
	}

	pair, err := s.tokens.IssuePair(Payload{SubjectID: p.ID, Email: p.Email, Kind: payload.Kind, Role: p.Role})
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}
	if err := s.storeRefreshHash(ctx, payload.Kind, p.ID, pair.RefreshToken); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// SignOut clears the stored refresh hash for the principal, closing its
// session. Signing out an already signed-out principal is not an error.
func (s *SessionService) SignOut(ctx context.Context, kind model.Kind, id string) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown principal kind %q", ErrInvalidRequest, kind)
	}
	if err := s.store.SaveRefreshHash(ctx, kind, id, nil, nil); err != nil {
		return fmt.Errorf("clear refresh hash: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a short-lived reset token for the user with
// the given email and hands it to the mailer. Self-service reset is a user
// flow only; admins go through operations. Mail delivery is fire-and-forget:
// a delivery failure is logged and the request still succeeds.
func (s *SessionService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.store.FindByEmail(ctx, model.KindUser, email, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	token, err := s.tokens.IssueResetToken(p.ID, p.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(ctx, p.Email, token); err != nil {
			log.Printf("session: reset mail to %s failed: %v", p.Email, err)
		}
	}
	return nil
}

// ResetPassword verifies a reset token and overwrites the subject's
// password with the bcrypt hash of newPassword. Outstanding refresh
// sessions are left untouched.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	payload, err := s.tokens.Verify(token, UseAccess)
	if err != nil {
		return ErrInvalidToken
	}
	p, err := s.store.FindByID(ctx, model.KindUser, payload.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: user", ErrInvalidRequest)
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	hash, err := HashSecret(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, model.KindUser, p.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// storeRefreshHash bcrypt-hashes the freshly issued refresh token and
// persists it with an updated last_login. This is the single write of
// session state; it always happens-after successful issuance.
func (s *SessionService) storeRefreshHash(ctx context.Context, kind model.Kind, id, refreshToken string) error {
	hash, err := HashBearerSecret(refreshToken, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash refresh token: %w", err)
	}
	now := time.Now().UTC()
	if err := s.store.SaveRefreshHash(ctx, kind, id, &hash, &now); err != nil {
		return fmt.Errorf("save refresh hash: %w", err)
	}
	return nil
}

// recordVisit classifies the user agent and writes the visit on a detached
// context so a slow or failing recorder cannot block or fail the sign-in.
func (s *SessionService) recordVisit(userID, ip, userAgent string) {
	if s.visits == nil {
		return
	}
	cls := ClassifyUserAgent(userAgent)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.visits.Record(ctx, userID, ip, cls); err != nil {
			log.Printf("session: record visit for user %s failed: %v", userID, err)
		}
	}()
}
