// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
}

type Service struct {
	repo     Repository
	jwt      *JWTManager
	users    UserProvider
	denylist Denylist
	now      func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	denylist Denylist,
) *Service {
	return &Service{
		repo:     repo,
		jwt:      jwt,
		users:    users,
		denylist: denylist,
		now:      time.Now,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalises timing with the found-user path
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(ctx, user)
}

// Refresh rotates a refresh token. Presenting an already rotated token
// revokes its whole family. The replacement is minted before anything is
// written, and the claim plus insert is all-or-nothing, so a failed
// rotation leaves the presented token usable for a retry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find token: %w", err)
	}

	switch stored.State(s.now()) {
	case TokenUsed:
		s.revokeFamily(ctx, stored)
		return nil, ErrTokenReuse
	case TokenRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case TokenExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	pair, err := s.mint(user, stored.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rotate(ctx, stored.ID, pair.record); err != nil {
		if errors.Is(err, ErrTokenReuse) {
			s.revokeFamily(ctx, stored)
			return nil, ErrTokenReuse
		}
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	return pair.response, nil
}

// Logout revokes the presented refresh token, if any, and denies the
// access token that authenticated the call for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	refreshToken string,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if refreshToken != "" {
		stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find token: %w", err)
		case stored.UserID != claims.UserID:
			return fmt.Errorf("logout: %w", core.ErrForbidden)
		default:
			if err := s.repo.RevokeByID(ctx, stored.ID); err != nil {
				return err
			}
		}
	}

	if err := s.denylist.Deny(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// LogoutAll revokes every refresh token and bumps the token version so
// outstanding access tokens stop verifying.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke all tokens: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}

	return nil
}

// VerifyAccessToken satisfies middleware.TokenVerifier.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	denied, err := s.denylist.Denied(ctx, claims.TokenID)
	if err != nil {
		slog.WarnContext(ctx, "denylist unavailable", "error", err)
	}
	if denied {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// PurgeExpired drops refresh tokens that expired more than a day ago.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().Add(-24*time.Hour))
}

func (s *Service) revokeFamily(ctx context.Context, token *RefreshToken) {
	if err := s.repo.RevokeFamily(ctx, token.FamilyID); err != nil {
		slog.ErrorContext(ctx, "revoke token family",
			"family_id", token.FamilyID,
			"error", err,
		)
	}
	slog.WarnContext(ctx, "refresh token reuse detected",
		"user_id", token.UserID,
		"family_id", token.FamilyID,
	)
}

// tokenPair is a signed access token plus a refresh token that has not
// been stored yet.
type tokenPair struct {
	record   *RefreshToken
	response *AuthResponse
}

// mint signs an access token and generates a refresh token without
// touching storage. An empty familyID starts a new family.
func (s *Service) mint(user *UserInfo, familyID string) (*tokenPair, error) {
	access, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID:       user.ID,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.jwt.CreateRefreshToken(familyID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	return &tokenPair{
		record: &RefreshToken{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			TokenHash: refresh.Hash,
			FamilyID:  refresh.FamilyID,
			ExpiresAt: refresh.ExpiresAt,
		},
		response: &AuthResponse{
			User: toUserResponse(user),
			Tokens: TokenResponse{
				AccessToken:  access.Token,
				RefreshToken: refresh.Token,
				TokenType:    "Bearer",
				ExpiresIn:    int(s.jwt.AccessTokenTTL() / time.Second),
				ExpiresAt:    access.ExpiresAt,
			},
		},
	}, nil
}

// issue starts a new token family for a fresh login.
func (s *Service) issue(ctx context.Context, user *UserInfo) (*AuthResponse, error) {
	pair, err := s.mint(user, "")
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, pair.record); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return pair.response, nil
}

func toUserResponse(u *UserInfo) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

var _ middleware.TokenVerifier = (*Service)(nil)
