// AngelaMos | 2026
// entity.go

package profile

import (
	"time"
)

const (
	FreeDailyLimit = 5
	ProDailyLimit  = 50
)

const (
	TierFree = "free"
	TierPro  = "pro"
)

// Profile is the per-user usage record. DailyGenerations only counts
// generations made on LastGenerationDate (UTC, YYYY-MM-DD).
type Profile struct {
	ID                 string    `db:"id"`
	IsPro              bool      `db:"is_pro"`
	DailyGenerations   int       `db:"daily_generations"`
	LastGenerationDate string    `db:"last_generation_date"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func DailyLimit(isPro bool) int {
	if isPro {
		return ProDailyLimit
	}
	return FreeDailyLimit
}

func (p *Profile) DailyLimit() int {
	return DailyLimit(p.IsPro)
}

func (p *Profile) Tier() string {
	if p.IsPro {
		return TierPro
	}
	return TierFree
}

// UsedOn treats a counter stamped with another date as zero.
func (p *Profile) UsedOn(today string) int {
	if p.LastGenerationDate != today {
		return 0
	}
	return p.DailyGenerations
}

// Remaining is limit minus used, which is negative after a pro to free
// downgrade. Callers that display it clamp to zero.
func (p *Profile) Remaining(today string) int {
	return p.DailyLimit() - p.UsedOn(today)
}

// Today formats t as the UTC calendar day used for rollover.
func Today(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

type Stats struct {
	Profiles         int `db:"profiles"          json:"profiles"`
	ProProfiles      int `db:"pro_profiles"      json:"pro_profiles"`
	GenerationsToday int `db:"generations_today" json:"generations_today"`
}
