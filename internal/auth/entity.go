// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one row per issued refresh token. Tokens rotated from the
// same sign-in share a FamilyID so reuse can revoke the whole chain.
type RefreshToken struct {
	ID           string     `db:"id"`
	AccountID    string     `db:"account_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	IsUsed       bool       `db:"is_used"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
	UserAgent    string     `db:"user_agent"`
	IPAddress    string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked() && !t.IsUsed
}

const (
	blacklistPrefix   = "auth:blacklist:"
	resetTicketPrefix = "auth:reset:"
)
