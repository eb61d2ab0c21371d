// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the login account. Generation tier and usage live on the
// profile, keyed by the same id.
type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Name         string     `db:"name"`
	Role         string     `db:"role"`
	TokenVersion int        `db:"token_version"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
