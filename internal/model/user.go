package model

import "time"

// User account statuses and types. Stored as enum columns on `users`.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"

	AccountFree    = "free"
	AccountPremium = "premium"
)

// User represents a row in the `users` table. Each field corresponds to a
// column. The secret columns (PasswordHash, RefreshTokenHash,
// VerificationTokenHash) are excluded from default repository projections and
// only loaded by the narrow lookups that need them.
//
// Fields:
//  ID                    – users.user_id (UUID primary key).
//  FirstName/LastName    – users.first_name / users.last_name.
//  Email                 – users.email (unique within the table).
//  PhoneNumber           – users.phone_number (optional).
//  PasswordHash          – users.password_hash (bcrypt, select-excluded).
//  ProfilePicture        – users.profile_picture (optional URL).
//  RegistrationDate      – users.registration_date.
//  Status                – users.status ("active" | "inactive").
//  AccountType           – users.account_type ("free" | "premium").
//  LastLogin             – users.last_login (nullable).
//  RefreshTokenHash      – users.hashed_refresh_token (nullable, select-excluded).
//  VerificationTokenHash – users.hashed_email_verification_token (nullable,
//                          select-excluded; bcrypt of the pending OTP code).
type User struct {
	ID                    string
	FirstName             string
	LastName              string
	Email                 string
	PhoneNumber           string
	PasswordHash          string
	ProfilePicture        string
	RegistrationDate      time.Time
	Status                string
	AccountType           string
	LastLogin             *time.Time
	RefreshTokenHash      *string
	VerificationTokenHash *string
}
