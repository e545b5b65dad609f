package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/crm-backend/internal/model"
)

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		caller  Identity
		wantErr bool
		wantMsg string
	}{
		{
			name:   "owner allowed",
			target: "u-1",
			caller: Identity{SubjectID: "u-1", Kind: model.KindUser, Role: model.AccountFree},
		},
		{
			name:   "admin allowed on itself",
			target: "a-1",
			caller: Identity{SubjectID: "a-1", Kind: model.KindAdmin, Role: model.RoleSupport},
		},
		{
			name:    "admin denied on other principal",
			target:  "u-1",
			caller:  Identity{SubjectID: "a-1", Kind: model.KindAdmin, Role: model.RoleSuper},
			wantErr: true,
			wantMsg: "Admin access required for this operation",
		},
		{
			name:    "premium user denied",
			target:  "u-2",
			caller:  Identity{SubjectID: "u-1", Kind: model.KindUser, Role: model.AccountPremium},
			wantErr: true,
			wantMsg: "Premium feature: Upgrade required for full access",
		},
		{
			name:    "free user denied",
			target:  "u-2",
			caller:  Identity{SubjectID: "u-1", Kind: model.KindUser, Role: model.AccountFree},
			wantErr: true,
			wantMsg: "You can only access your own resources",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPermission(tc.target, tc.caller)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrForbidden) {
				t.Fatalf("err = %v, want ErrForbidden", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("err = %q, want message %q", err, tc.wantMsg)
			}
		})
	}
}
