// AngelaMos | 2026
// dto.go

package profile

type UpdateTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=free pro"`
}

type ProfileResponse struct {
	ID                   string `json:"id"`
	IsPro                bool   `json:"isPro"`
	Tier                 string `json:"tier"`
	DailyGenerations     int    `json:"dailyGenerations"`
	LastGenerationDate   string `json:"lastGenerationDate"`
	DailyLimit           int    `json:"dailyLimit"`
	RemainingGenerations int    `json:"remainingGenerations"`
}

// ToProfileResponse reports usage as of today: a counter stamped with an
// earlier date shows as zero used.
func ToProfileResponse(p *Profile, today string) ProfileResponse {
	return ProfileResponse{
		ID:                   p.ID,
		IsPro:                p.IsPro,
		Tier:                 p.Tier(),
		DailyGenerations:     p.UsedOn(today),
		LastGenerationDate:   p.LastGenerationDate,
		DailyLimit:           p.DailyLimit(),
		RemainingGenerations: max(p.Remaining(today), 0),
	}
}
