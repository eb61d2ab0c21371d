// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/socialai/internal/auth"
	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/profile"
)

// UsageProvider is satisfied by *profile.Service.
type UsageProvider interface {
	Ensure(ctx context.Context, userID string) (*profile.Profile, error)
	Today() string
}

type Service struct {
	repo  Repository
	usage UsageProvider
}

func NewService(repo Repository, usage UsageProvider) *Service {
	return &Service{repo: repo, usage: usage}
}

func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(ctx context.Context, userID string) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

// GetMe returns the account and lazily creates its usage profile.
func (s *Service) GetMe(ctx context.Context, userID string) (*MeResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := s.usage.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}

	return &MeResponse{
		User:  ToUserResponse(user),
		Usage: profile.ToProfileResponse(p, s.usage.Today()),
	}, nil
}

func (s *Service) UpdateMe(ctx context.Context, userID string, req UpdateUserRequest) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	return s.repo.SoftDelete(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context, params ListUsersParams) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) UpdateUserRole(ctx context.Context, id, role string) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("update role: invalid role %q: %w", role, core.ErrInvalidInput)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
