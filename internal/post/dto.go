// AngelaMos | 2026
// dto.go

package post

import (
	"time"
)

type CreatePostRequest struct {
	OriginalContent string `json:"originalContent" validate:"required,max=100000"`
	Platform        string `json:"platform"        validate:"required,oneof=twitter linkedin instagram facebook"`
	GeneratedText   string `json:"generatedText"   validate:"required,max=20000"`
}

type PostResponse struct {
	ID              string            `json:"id"`
	OriginalContent string            `json:"originalContent"`
	Platform        string            `json:"platform"`
	GeneratedText   string            `json:"generatedText"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

type ListPostsParams struct {
	UserID   string
	Platform string
	Page     int
	PageSize int
}

func (p *ListPostsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListPostsParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToPostResponse(p *Post) PostResponse {
	resp := PostResponse{
		ID:              p.ID,
		OriginalContent: p.OriginalContent,
		Platform:        p.Platform,
		GeneratedText:   p.GeneratedText,
		CreatedAt:       p.CreatedAt,
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = p.Metadata
	}
	return resp
}

func ToPostResponseList(posts []Post) []PostResponse {
	responses := make([]PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, ToPostResponse(&posts[i]))
	}
	return responses
}
