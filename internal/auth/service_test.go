// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/socialai/internal/config"
	"github.com/carterperez-dev/socialai/internal/core"
)

type memTokens struct {
	mu     sync.Mutex
	byHash map[string]*RefreshToken
	// failWrites makes the next N inserts fail, as a dropped connection would.
	failWrites int
}

func newMemTokens() *memTokens {
	return &memTokens{byHash: map[string]*RefreshToken{}}
}

func (m *memTokens) Create(_ context.Context, t *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(t)
}

func (m *memTokens) insertLocked(t *RefreshToken) error {
	if m.failWrites > 0 {
		m.failWrites--
		return errors.New("create refresh token: connection reset")
	}
	t.CreatedAt = time.Now()
	cp := *t
	m.byHash[t.TokenHash] = &cp
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memTokens) Rotate(_ context.Context, usedID string, next *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var used *RefreshToken
	for _, t := range m.byHash {
		if t.ID == usedID && t.UsedAt == nil && t.RevokedAt == nil {
			used = t
		}
	}
	if used == nil {
		return fmt.Errorf("claim refresh token: %w", ErrTokenReuse)
	}

	if err := m.insertLocked(next); err != nil {
		return err
	}

	now := time.Now()
	used.UsedAt = &now
	used.ReplacedByID = &next.ID
	return nil
}

func (m *memTokens) revokeWhere(match func(*RefreshToken) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.byHash {
		if match(t) && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
}

func (m *memTokens) RevokeByID(_ context.Context, id string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.ID == id })
	return nil
}

func (m *memTokens) RevokeFamily(_ context.Context, familyID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.FamilyID == familyID })
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string) error {
	m.revokeWhere(func(t *RefreshToken) bool { return t.UserID == userID })
	return nil
}

func (m *memTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if t.ExpiresAt.Before(before) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*UserInfo
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, core.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Create(_ context.Context, email, hash, name string) (*UserInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return nil, core.ErrDuplicateKey
		}
	}
	u := &UserInfo{
		ID:           fmt.Sprintf("user-%d", len(m.users)+1),
		Email:        strings.ToLower(email),
		Name:         name,
		PasswordHash: hash,
		Role:         "user",
	}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) IncrementTokenVersion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].TokenVersion++
	return nil
}

type memDenylist struct {
	denied map[string]time.Time
	err    error
}

func (d *memDenylist) Deny(_ context.Context, id string, until time.Time) error {
	d.denied[id] = until
	return nil
}

func (d *memDenylist) Denied(_ context.Context, id string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.denied[id]
	return ok, nil
}

type fixture struct {
	svc      *Service
	tokens   *memTokens
	users    *memUsers
	denylist *memDenylist
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	if err := GenerateKeyPair(priv, pub); err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	jwtManager, err := NewJWTManager(config.JWTConfig{
		PrivateKeyPath:     priv,
		PublicKeyPath:      pub,
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 24 * time.Hour,
		Issuer:             "socialai",
		Audience:           "socialai-api",
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	f := &fixture{
		tokens:   newMemTokens(),
		users:    &memUsers{users: map[string]*UserInfo{}},
		denylist: &memDenylist{denied: map[string]time.Time{}},
	}
	f.svc = NewService(f.tokens, jwtManager, f.users, f.denylist)
	return f
}

func (f *fixture) register(t *testing.T) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Email: "Writer@Example.com", Password: "correct horse", Name: "Writer",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return resp
}

func TestRegisterLoginAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t)

	if _, err := f.svc.Register(ctx, RegisterRequest{
		Email: "writer@example.com", Password: "another one", Name: "Dup",
	}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate Register() error = %v, want ErrEmailExists", err)
	}

	if _, err := f.svc.Login(ctx, LoginRequest{Email: "writer@example.com", Password: "wrong password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v", err)
	}
	if _, err := f.svc.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "correct horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email error = %v", err)
	}

	login, err := f.svc.Login(ctx, LoginRequest{Email: "writer@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.Tokens.TokenType != "Bearer" || login.Tokens.ExpiresIn != 900 {
		t.Fatalf("tokens = %+v", login.Tokens)
	}

	claims, err := f.svc.VerifyAccessToken(ctx, login.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != "user" || claims.TokenID == "" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := f.svc.VerifyAccessToken(ctx, login.Tokens.AccessToken+"x"); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("tampered token error = %v", err)
	}
}

func TestRefreshRotatesAndDetectsReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t)

	second, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if second.Tokens.RefreshToken == first.Tokens.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	if _, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("reused token error = %v, want ErrTokenReuse", err)
	}

	if _, err := f.svc.Refresh(ctx, second.Tokens.RefreshToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("family member after reuse error = %v, want ErrTokenRevoked", err)
	}

	if _, err := f.svc.Refresh(ctx, "never-issued"); !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("unknown token error = %v", err)
	}
}

func TestRefreshRetryAfterStoreFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t)

	f.tokens.failWrites = 1
	if _, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken); err == nil {
		t.Fatal("Refresh() succeeded while the store was failing")
	}

	second, err := f.svc.Refresh(ctx, first.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("retry Refresh() error = %v, want success", err)
	}

	if _, err := f.svc.Refresh(ctx, second.Tokens.RefreshToken); err != nil {
		t.Fatalf("rotated token unusable after retry: %v", err)
	}

	for _, tok := range f.tokens.byHash {
		if tok.RevokedAt != nil {
			t.Fatalf("token %s revoked; family must survive a failed rotation", tok.ID)
		}
	}
}

func TestRefreshExpired(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t)
	f.svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }

	if _, err := f.svc.Refresh(context.Background(), reg.Tokens.RefreshToken); !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("error = %v, want ErrTokenExpired", err)
	}
}

func TestLogoutDeniesAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t)

	claims, err := f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Logout(ctx, claims, reg.Tokens.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, err := f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("access token after logout error = %v", err)
	}
	if _, err := f.svc.Refresh(ctx, reg.Tokens.RefreshToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("refresh after logout error = %v", err)
	}
}

func TestLogoutRejectsForeignRefreshToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	victim := f.register(t)

	other, err := f.svc.Register(ctx, RegisterRequest{Email: "other@example.com", Password: "password1", Name: "O"})
	if err != nil {
		t.Fatal(err)
	}
	claims, err := f.svc.VerifyAccessToken(ctx, other.Tokens.AccessToken)
	if err != nil {
		t.Fatal(err)
	}

	if err := f.svc.Logout(ctx, claims, victim.Tokens.RefreshToken); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestLogoutAllInvalidatesOutstandingTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg := f.register(t)

	if err := f.svc.LogoutAll(ctx, reg.User.ID); err != nil {
		t.Fatalf("LogoutAll() error = %v", err)
	}

	if _, err := f.svc.VerifyAccessToken(ctx, reg.Tokens.AccessToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("access token error = %v, want ErrTokenRevoked", err)
	}
	if _, err := f.svc.Refresh(ctx, reg.Tokens.RefreshToken); !errors.Is(err, core.ErrTokenRevoked) {
		t.Fatalf("refresh error = %v, want ErrTokenRevoked", err)
	}
}

func TestVerifyToleratesDenylistOutage(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t)
	f.denylist.err = errors.New("redis down")

	if _, err := f.svc.VerifyAccessToken(context.Background(), reg.Tokens.AccessToken); err != nil {
		t.Fatalf("VerifyAccessToken() error = %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	f := newFixture(t)
	f.register(t)
	f.svc.now = func() time.Time { return time.Now().Add(72 * time.Hour) }

	n, err := f.svc.PurgeExpired(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpired() = %d, %v; want 1", n, err)
	}
}

func TestTokenState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)

	tests := []struct {
		name  string
		token RefreshToken
		want  TokenState
	}{
		{"active", RefreshToken{ExpiresAt: now.Add(time.Hour)}, TokenActive},
		{"expired", RefreshToken{ExpiresAt: now}, TokenExpired},
		{"revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &past}, TokenRevoked},
		{"used beats revoked", RefreshToken{ExpiresAt: now.Add(time.Hour), UsedAt: &past, RevokedAt: &past}, TokenUsed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.token.State(now); got != tc.want {
				t.Fatalf("State() = %v, want %v", got, tc.want)
			}
		})
	}
}
