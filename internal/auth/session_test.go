package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/crm-backend/internal/model"
)

// fakeStore is an in-memory PrincipalStore keyed by kind+id.
type fakeStore struct {
	principals map[string]*model.Principal
}

func newFakeStore() *fakeStore {
	return &fakeStore{principals: map[string]*model.Principal{}}
}

func key(kind model.Kind, id string) string { return string(kind) + ":" + id }

func (f *fakeStore) add(p *model.Principal) { f.principals[key(p.Kind, p.ID)] = p }

func (f *fakeStore) FindByEmail(_ context.Context, kind model.Kind, email string, _ bool) (*model.Principal, error) {
	for _, p := range f.principals {
		if p.Kind == kind && p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStore) FindByID(_ context.Context, kind model.Kind, id string) (*model.Principal, error) {
	p, ok := f.principals[key(kind, id)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SaveRefreshHash(_ context.Context, kind model.Kind, id string, hash *string, lastLogin *time.Time) error {
	p, ok := f.principals[key(kind, id)]
	if !ok {
		return sql.ErrNoRows
	}
	p.RefreshTokenHash = hash
	if lastLogin != nil {
		p.LastLogin = lastLogin
	}
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, kind model.Kind, id, passwordHash string) error {
	p, ok := f.principals[key(kind, id)]
	if !ok {
		return sql.ErrNoRows
	}
	p.PasswordHash = passwordHash
	return nil
}

// fakeRecorder pushes recorded visits onto a channel so tests can wait for
// the async write.
type fakeRecorder struct {
	visits chan Classification
}

func (f *fakeRecorder) Record(_ context.Context, _, _ string, cls Classification) error {
	f.visits <- cls
	return nil
}

// fakeMailer captures outbound mail.
type fakeMailer struct {
	resetTokens []string
	otpCodes    []string
}

func (f *fakeMailer) SendPasswordResetEmail(_ context.Context, _, token string) error {
	f.resetTokens = append(f.resetTokens, token)
	return nil
}

func (f *fakeMailer) SendOtpEmail(_ context.Context, _, code, _ string) error {
	f.otpCodes = append(f.otpCodes, code)
	return nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := HashSecret(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func newTestSession(t *testing.T) (*SessionService, *fakeStore, *fakeMailer) {
	t.Helper()
	store := newFakeStore()
	mailer := &fakeMailer{}
	svc := NewSessionService(store, newTestTokens(), nil, mailer, bcrypt.MinCost)
	return svc, store, mailer
}

func addActiveUser(t *testing.T, store *fakeStore) *model.Principal {
	t.Helper()
	p := &model.Principal{
		Kind:         model.KindUser,
		ID:           "u-1",
		Email:        "user@example.com",
		PasswordHash: mustHash(t, "correct-horse"),
		Role:         model.AccountFree,
		Status:       model.StatusActive,
	}
	store.add(p)
	return p
}

func TestSignInStoresVerifiableRefreshHash(t *testing.T) {
	svc, store, _ := newTestSession(t)
	addActiveUser(t, store)

	pair, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "User@Example.com ", Password: "correct-horse", UserType: "user",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	stored := store.principals[key(model.KindUser, "u-1")]
	if stored.RefreshTokenHash == nil {
		t.Fatal("refresh hash not stored")
	}
	if !VerifyBearerSecret(*stored.RefreshTokenHash, pair.RefreshToken) {
		t.Error("stored hash does not verify the issued refresh token")
	}
	if stored.LastLogin == nil {
		t.Error("last login not stamped")
	}
}

func TestSignInCredentialFailuresAreUniform(t *testing.T) {
	svc, store, _ := newTestSession(t)
	addActiveUser(t, store)

	_, wrongPw := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "wrong", UserType: "user",
	})
	_, unknown := svc.SignIn(context.Background(), SignInRequest{
		Email: "nobody@example.com", Password: "correct-horse", UserType: "user",
	})

	if !errors.Is(wrongPw, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", wrongPw)
	}
	if !errors.Is(unknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Errorf("failure modes distinguishable: %q vs %q", wrongPw, unknown)
	}
}

func TestSignInInactiveUser(t *testing.T) {
	svc, store, _ := newTestSession(t)
	p := addActiveUser(t, store)
	p.Status = model.StatusInactive

	_, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "correct-horse", UserType: "user",
	})
	if !errors.Is(err, ErrAccountInactive) {
		t.Errorf("err = %v, want ErrAccountInactive", err)
	}
}

func TestSignInUnknownKind(t *testing.T) {
	svc, _, _ := newTestSession(t)
	_, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "x", UserType: "superuser",
	})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSignInAdminSkipsStatusGate(t *testing.T) {
	svc, store, _ := newTestSession(t)
	store.add(&model.Principal{
		Kind:         model.KindAdmin,
		ID:           "a-1",
		Email:        "admin@example.com",
		PasswordHash: mustHash(t, "admin-pw"),
		Role:         model.RoleSuper,
		Status:       model.StatusActive,
	})

	pair, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "admin@example.com", Password: "admin-pw", UserType: "admin",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	got, err := newTestTokens().Verify(pair.AccessToken, UseAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Kind != model.KindAdmin || got.Role != model.RoleSuper {
		t.Errorf("claims = %+v, want admin/super", got)
	}
}

func TestRefreshRotationInvalidatesPredecessor(t *testing.T) {
	svc, store, _ := newTestSession(t)
	addActiveUser(t, store)

	first, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "correct-horse", UserType: "user",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	second, err := svc.RefreshToken(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("rotation returned the same refresh token")
	}

	// The superseded token verifies cryptographically but no longer matches
	// the stored hash.
	if _, err := svc.RefreshToken(context.Background(), first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("replayed old token: err = %v, want ErrInvalidToken", err)
	}
	if _, err := svc.RefreshToken(context.Background(), second.RefreshToken); err != nil {
		t.Errorf("current token rejected: %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, store, _ := newTestSession(t)
	addActiveUser(t, store)

	pair, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "correct-horse", UserType: "user",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestSignOutClosesSession(t *testing.T) {
	svc, store, _ := newTestSession(t)
	addActiveUser(t, store)

	pair, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "correct-horse", UserType: "user",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := svc.SignOut(context.Background(), model.KindUser, "u-1"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if store.principals[key(model.KindUser, "u-1")].RefreshTokenHash != nil {
		t.Error("refresh hash not cleared")
	}
	if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh after signout: err = %v, want ErrInvalidToken", err)
	}
	// Signing out again is a no-op, not an error.
	if err := svc.SignOut(context.Background(), model.KindUser, "u-1"); err != nil {
		t.Errorf("second SignOut: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, store, mailer := newTestSession(t)
	addActiveUser(t, store)

	if err := svc.RequestPasswordReset(context.Background(), "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown email: err = %v, want ErrNotFound", err)
	}

	if err := svc.RequestPasswordReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(mailer.resetTokens) != 1 {
		t.Fatalf("reset mails sent = %d, want 1", len(mailer.resetTokens))
	}

	if err := svc.ResetPassword(context.Background(), mailer.resetTokens[0], "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	stored := store.principals[key(model.KindUser, "u-1")]
	if !VerifySecret(stored.PasswordHash, "new-password") {
		t.Error("password not updated")
	}
	if VerifySecret(stored.PasswordHash, "correct-horse") {
		t.Error("old password still accepted")
	}

	if err := svc.ResetPassword(context.Background(), "garbage-token", "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestResetKeepsRefreshSession(t *testing.T) {
	svc, store, mailer := newTestSession(t)
	addActiveUser(t, store)

	pair, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "user@example.com", Password: "correct-horse", UserType: "user",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if err := svc.RequestPasswordReset(context.Background(), "user@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := svc.ResetPassword(context.Background(), mailer.resetTokens[0], "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	// Open sessions survive a password reset.
	if _, err := svc.RefreshToken(context.Background(), pair.RefreshToken); err != nil {
		t.Errorf("refresh after reset: %v", err)
	}
}

func TestSignInRecordsVisitForUsersOnly(t *testing.T) {
	store := newFakeStore()
	rec := &fakeRecorder{visits: make(chan Classification, 1)}
	svc := NewSessionService(store, newTestTokens(), rec, nil, bcrypt.MinCost)

	addActiveUser(t, store)
	store.add(&model.Principal{
		Kind:         model.KindAdmin,
		ID:           "a-1",
		Email:        "admin@example.com",
		PasswordHash: mustHash(t, "admin-pw"),
		Role:         model.RoleSupport,
		Status:       model.StatusActive,
	})

	_, err := svc.SignIn(context.Background(), SignInRequest{
		Email:     "user@example.com",
		Password:  "correct-horse",
		UserType:  "user",
		IPAddress: "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	select {
	case cls := <-rec.visits:
		if cls.DeviceType != DeviceWindowsPC {
			t.Errorf("recorded device type = %q, want %q", cls.DeviceType, DeviceWindowsPC)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("visit never recorded")
	}

	if _, err := svc.SignIn(context.Background(), SignInRequest{
		Email: "admin@example.com", Password: "admin-pw", UserType: "admin",
	}); err != nil {
		t.Fatalf("admin SignIn: %v", err)
	}
	select {
	case <-rec.visits:
		t.Error("admin sign-in must not record a visit")
	case <-time.After(100 * time.Millisecond):
	}
}
