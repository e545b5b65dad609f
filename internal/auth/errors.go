// Package auth implements the authentication core: credential verification,
// token issuance and rotation, sign-out, password reset, permission checks
// and device classification for audit visit records. It works uniformly
// across the two principal kinds (users and admins), which share one token
// namespace but live in separate tables.
package auth

import "errors"

// Sentinel errors returned by the auth core. Handlers map these onto HTTP
// status codes; everything not in this list is an internal failure (500).
//
// ErrInvalidCredentials deliberately covers both "unknown email" and "wrong
// password" so a caller cannot probe which half was wrong. Likewise
// ErrInvalidToken covers bad signature, expiry and hash-mismatched refresh
// tokens without distinguishing them externally.
var (
	// ErrInvalidRequest signals malformed input such as an unknown
	// principal kind. Maps to 400.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCredentials signals a failed email/password check. Maps to 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive signals correct credentials on a gated account.
	// Distinct from ErrInvalidCredentials: the caller proved who they are.
	// Maps to 400.
	ErrAccountInactive = errors.New("account inactive")

	// ErrInvalidToken signals a refresh or reset token that failed
	// verification for any reason. Maps to 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned by TokenService.Verify when the signature
	// is valid but the token is past its expiry, so middleware can tell a
	// client to refresh instead of re-login. Refresh and reset flows fold
	// it into ErrInvalidToken before it leaves the service.
	ErrTokenExpired = errors.New("token expired")

	// ErrNotFound signals a lookup miss for an explicitly named subject,
	// e.g. a password-reset request for an unknown email. Maps to 404.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals an ownership mismatch between the caller and the
	// target resource. Maps to 403.
	ErrForbidden = errors.New("forbidden")
)
