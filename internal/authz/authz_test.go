// AngelaMos | 2026
// authz_test.go

package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role       string
		admin      bool
		superadmin bool
	}{
		{RoleUser, false, false},
		{RoleAdmin, true, false},
		{RoleSuperAdmin, true, true},
		{RoleDeleted, false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.admin, IsAdmin(tt.role))
			assert.Equal(t, tt.admin, CanDecide(tt.role))
			assert.Equal(t, tt.admin, CanManagePricing(tt.role))
			assert.Equal(t, tt.superadmin, IsSuperAdmin(tt.role))
			assert.Equal(t, tt.superadmin, CanHardDelete(tt.role))
		})
	}
}

func TestCanHoldSession(t *testing.T) {
	assert.True(t, CanHoldSession(StatusActive))
	assert.False(t, CanHoldSession(StatusPaused))
	assert.False(t, CanHoldSession(StatusDeleted))
}

func TestCanViewSubscription(t *testing.T) {
	assert.True(t, CanViewSubscription(RoleUser, "u1", "u1"))
	assert.False(t, CanViewSubscription(RoleUser, "u2", "u1"))
	assert.True(t, CanViewSubscription(RoleAdmin, "a1", "u1"))
	assert.False(t, CanViewSubscription(RoleAdmin, "", "u1"))
}
