// AngelaMos | 2026
// entity.go

package account

import (
	"time"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
)

type Account struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	FullName         string    `db:"full_name"`
	Phone            string    `db:"phone"`
	Role             string    `db:"role"`
	Status           string    `db:"status"`
	SecurityQuestion string    `db:"security_question"`
	SecurityAnswer   string    `db:"security_answer"`
	TokenVersion     int       `db:"token_version"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (a *Account) IsAdmin() bool {
	return authz.IsAdmin(a.Role)
}

func (a *Account) IsSuperAdmin() bool {
	return authz.IsSuperAdmin(a.Role)
}

func (a *Account) IsDeleted() bool {
	return a.Status == authz.StatusDeleted
}
