// Package repository implements SQL persistence over the CRM schema: users,
// admins, quotes, tickets, user visits and admin activity logs. Sentinel
// errors defined here let handlers distinguish failure scenarios without
// inspecting driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when an insert collides with the unique email
// (or username) index of a table. Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrConflict is returned when an update or delete cannot proceed because of
// dependent state, such as removing a user who still owns open tickets.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
