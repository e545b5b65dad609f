package model

import "time"

// Kind discriminates the two authenticatable entity kinds. Users and admins
// live in separate tables with separate role vocabularies but share one token
// namespace, so the auth layer carries the kind everywhere instead of
// duplicating its logic per table.
type Kind string

const (
	KindUser  Kind = "user"
	KindAdmin Kind = "admin"
)

// Valid reports whether k is one of the two known principal kinds.
func (k Kind) Valid() bool { return k == KindUser || k == KindAdmin }

// Principal is the tagged union of User and Admin as the session layer sees
// it: only the credential and session fields, projected out of whichever
// table matches Kind.
//
// Role carries the admin role for admins and the account type for users;
// downstream authorization reads it from the token's role slot without
// caring which table it came from.
//
// PasswordHash and RefreshTokenHash are secret columns. They are only
// populated when a lookup explicitly asks for them.
type Principal struct {
	Kind             Kind
	ID               string
	Email            string
	PasswordHash     string
	RefreshTokenHash *string // nil until first sign-in; at most one live hash
	Role             string
	Status           string // users only; admins are always "active"
	LastLogin        *time.Time
}
