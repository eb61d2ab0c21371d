// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type TokenState int

const (
	TokenActive TokenState = iota
	TokenUsed
	TokenRevoked
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenActive:
		return "active"
	case TokenUsed:
		return "used"
	case TokenRevoked:
		return "revoked"
	case TokenExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// RefreshToken is one link in a rotation family. Only the hash of the
// opaque token is stored.
type RefreshToken struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	TokenHash    string     `db:"token_hash"`
	FamilyID     string     `db:"family_id"`
	ExpiresAt    time.Time  `db:"expires_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UsedAt       *time.Time `db:"used_at"`
	RevokedAt    *time.Time `db:"revoked_at"`
	ReplacedByID *string    `db:"replaced_by_id"`
}

// State reports the token's lifecycle position at now. A used token stays
// used even after its family is revoked so reuse can still be detected.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.UsedAt != nil:
		return TokenUsed
	case t.RevokedAt != nil:
		return TokenRevoked
	case !now.Before(t.ExpiresAt):
		return TokenExpired
	default:
		return TokenActive
	}
}
