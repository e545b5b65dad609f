package auth

import (
	"fmt"
	"strings"

	"github.com/iliyamo/crm-backend/internal/model"
)

// Identity is the caller as resolved from a verified access token.
type Identity struct {
	SubjectID string
	Kind      model.Kind
	Role      string
}

// CheckPermission allows an operation on the resource owned by targetID only
// when the caller is that same principal. The decision is plain ownership
// equality, not a role hierarchy; the role merely tailors the denial message
// for the client.
func CheckPermission(targetID string, caller Identity) error {
	if caller.SubjectID == targetID {
		return nil
	}
	msg := "You can only access your own resources"
	switch {
	case strings.Contains(caller.Role, "admin") || caller.Kind == model.KindAdmin:
		msg = "Admin access required for this operation"
	case caller.Role == model.AccountPremium:
		msg = "Premium feature: Upgrade required for full access"
	}
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}
