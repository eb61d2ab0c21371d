// AngelaMos | 2026
// service.go

package post

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/socialai/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type SaveInput struct {
	UserID          string
	OriginalContent string
	Platform        string
	GeneratedText   string
	Metadata        Metadata
}

func (s *Service) Save(ctx context.Context, in SaveInput) (*Post, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("save post: %w", core.ErrUnauthorized)
	}

	p := &Post{
		ID:              uuid.New().String(),
		UserID:          in.UserID,
		OriginalContent: in.OriginalContent,
		Platform:        in.Platform,
		GeneratedText:   in.GeneratedText,
		Metadata:        in.Metadata,
	}
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// RecordWixPublish stores the published blog content as a post so it shows
// up in the user's history next to generated posts.
func (s *Service) RecordWixPublish(
	ctx context.Context,
	userID, originalContent, publishedContent, wixPostID string,
) (*Post, error) {
	return s.Save(ctx, SaveInput{
		UserID:          userID,
		OriginalContent: originalContent,
		Platform:        PlatformWixBlog,
		GeneratedText:   publishedContent,
		Metadata:        Metadata{"wix_post_id": wixPostID},
	})
}

func (s *Service) List(
	ctx context.Context,
	params ListPostsParams,
) ([]Post, int, error) {
	return s.repo.ListByUser(ctx, params)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}
	return s.repo.Delete(ctx, id, userID)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
