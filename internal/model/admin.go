package model

import "time"

// Admin roles. Stored in admins.role; also embedded in the role slot of
// tokens issued to admins.
const (
	RoleSuper      = "super"
	RoleSupport    = "support"
	RoleQuotations = "quotations"
	RoleSystem     = "system"
)

// AdminRoles lists every valid admin role, in the order they are shown in
// admin-facing tooling.
var AdminRoles = []string{RoleSuper, RoleSupport, RoleQuotations, RoleSystem}

// Admin represents a row in the `admins` table. Admins authenticate through
// the same session flow as users but carry a staff role instead of an
// account type, and never produce visit records.
//
// Fields:
//  ID               – admins.admin_id (UUID primary key).
//  Username         – admins.username (unique).
//  Email            – admins.email (unique within the table).
//  PasswordHash     – admins.password_hash (bcrypt, select-excluded).
//  Role             – admins.role (defaults to "support").
//  LastLogin        – admins.last_login (nullable).
//  RefreshTokenHash – admins.hashed_refresh_token (nullable, select-excluded).
type Admin struct {
	ID               string
	Username         string
	Email            string
	PasswordHash     string
	Role             string
	LastLogin        *time.Time
	RefreshTokenHash *string
}
