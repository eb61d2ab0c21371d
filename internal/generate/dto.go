// AngelaMos | 2026
// dto.go

package generate

// Platform is only checked for presence here so that an unknown key
// reaches the prompt stage and comes back as an invalid platform.
type GenerateRequest struct {
	Content  string `json:"content"  validate:"required"`
	Platform string `json:"platform" validate:"required"`
}

type GenerateResponse struct {
	Posts                []string `json:"posts"`
	RemainingGenerations int      `json:"remainingGenerations"`
}

type ErrorResponse struct {
	Error                string `json:"error"`
	Code                 string `json:"code,omitempty"`
	RemainingGenerations *int   `json:"remainingGenerations,omitempty"`
}
