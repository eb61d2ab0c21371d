// AngelaMos | 2026
// service.go

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/socialai/internal/core"
)

// ErrUnavailable means no profile exists for the user and none could be
// created.
var ErrUnavailable = errors.New("profile unavailable")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Today() string {
	return Today(s.now())
}

// Ensure loads the profile for userID, creating a free-tier record stamped
// with today when none exists yet. Failing to create it yields
// ErrUnavailable. A failed lookup is returned as is.
func (s *Service) Ensure(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("ensure profile: %w", core.ErrUnauthorized)
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	p = &Profile{
		ID:                 userID,
		IsPro:              false,
		DailyGenerations:   0,
		LastGenerationDate: s.Today(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if !errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("ensure profile: %w: %w", ErrUnavailable, err)
		}
		existing, err := s.repo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("ensure profile: %w: %w", ErrUnavailable, err)
		}
		return existing, nil
	}

	return p, nil
}

// SetTier reports ErrNotFound for an id that is not a UUID since no profile
// can carry one.
func (s *Service) SetTier(ctx context.Context, userID, tier string) (*Profile, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("set tier: %w", core.ErrNotFound)
	}

	switch tier {
	case TierFree:
		return s.repo.SetPro(ctx, userID, false)
	case TierPro:
		return s.repo.SetPro(ctx, userID, true)
	default:
		return nil, fmt.Errorf("set tier: invalid tier %q: %w", tier, core.ErrInvalidInput)
	}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx, s.Today())
}
