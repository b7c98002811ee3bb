// AngelaMos | 2026
// authz.go

// Package authz holds the role and status predicates. The HTTP middleware
// uses them to gate the write path; services re-check them before mutating.
package authz

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
	RoleDeleted    = "deleted"
)

const (
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusDeleted = "deleted"
)

func IsAdmin(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

func IsSuperAdmin(role string) bool {
	return role == RoleSuperAdmin
}

// CanHoldSession is false for paused and deleted accounts, whatever their role.
func CanHoldSession(status string) bool {
	return status == StatusActive
}

func CanDecide(role string) bool {
	return IsAdmin(role)
}

func CanManagePricing(role string) bool {
	return IsAdmin(role)
}

func CanHardDelete(role string) bool {
	return IsSuperAdmin(role)
}

func CanManageAccounts(role string) bool {
	return IsSuperAdmin(role)
}

// CanViewSubscription allows the owner and any administrator.
func CanViewSubscription(role, actorID, ownerID string) bool {
	return actorID != "" && (actorID == ownerID || IsAdmin(role))
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleDeleted:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusPaused, StatusDeleted:
		return true
	}
	return false
}

// Actor is the authenticated caller as seen by services.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return IsAdmin(a.Role)
}

func (a Actor) IsSuperAdmin() bool {
	return IsSuperAdmin(a.Role)
}
