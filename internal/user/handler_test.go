// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
	"github.com/carterperez-dev/socialai/internal/profile"
)

type memRepo struct {
	users map[string]*User
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email && u.DeletedAt == nil {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
}

func (m *memRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return core.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memRepo) IncrementTokenVersion(_ context.Context, id string) error {
	m.users[id].TokenVersion++
	return nil
}

func (m *memRepo) SoftDelete(ctx context.Context, id string) error {
	u, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := u.CreatedAt
	m.users[id].DeletedAt = &now
	return nil
}

func (m *memRepo) List(_ context.Context, params ListUsersParams) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		if params.Role == "" || u.Role == params.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

type fakeUsage struct {
	profiles map[string]*profile.Profile
	err      error
}

func (f *fakeUsage) Ensure(_ context.Context, userID string) (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		p = &profile.Profile{ID: userID, LastGenerationDate: f.Today()}
		f.profiles[userID] = p
	}
	return p, nil
}

func (f *fakeUsage) Today() string { return "2026-03-01" }

type roleVerifier struct{}

// Tokens look like "<role>:<user id>".
func (roleVerifier) VerifyAccessToken(_ context.Context, token string) (*middleware.AccessTokenClaims, error) {
	role, id, ok := strings.Cut(token, ":")
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	return &middleware.AccessTokenClaims{UserID: id, Role: role}, nil
}

func setup(t *testing.T) (*Service, *fakeUsage, http.Handler) {
	t.Helper()

	usage := &fakeUsage{profiles: map[string]*profile.Profile{}}
	svc := NewService(&memRepo{users: map[string]*User{}}, usage)

	r := chi.NewRouter()
	h := NewHandler(svc)
	auth := middleware.Authenticator(roleVerifier{})
	h.RegisterRoutes(r, auth)
	h.RegisterAdminRoutes(r, auth, middleware.RequireAdmin)
	return svc, usage, r
}

func call(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetMeIncludesUsage(t *testing.T) {
	svc, usage, h := setup(t)
	info, err := svc.Create(context.Background(), "Writer@Example.com", "hash", "Writer")
	if err != nil {
		t.Fatal(err)
	}
	if info.Email != "writer@example.com" {
		t.Fatalf("email = %q, want lowercased", info.Email)
	}
	usage.profiles[info.ID] = &profile.Profile{
		ID: info.ID, DailyGenerations: 3, LastGenerationDate: "2026-03-01",
	}

	rec := call(h, http.MethodGet, "/users/me", "user:"+info.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}

	var me MeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.User.Email != "writer@example.com" || me.Usage.RemainingGenerations != 2 || me.Usage.DailyLimit != 5 {
		t.Fatalf("me = %+v", me)
	}
}

func TestGetMeProfileFailure(t *testing.T) {
	svc, usage, h := setup(t)
	info, _ := svc.Create(context.Background(), "a@example.com", "hash", "A")
	usage.err = errors.New("db down")

	if rec := call(h, http.MethodGet, "/users/me", "user:"+info.ID, ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestUpdateAndDeleteMe(t *testing.T) {
	svc, _, h := setup(t)
	info, _ := svc.Create(context.Background(), "a@example.com", "hash", "A")
	token := "user:" + info.ID

	rec := call(h, http.MethodPut, "/users/me", token, `{"name":"Renamed"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Renamed") {
		t.Fatalf("update = %d %s", rec.Code, rec.Body)
	}

	if rec := call(h, http.MethodPut, "/users/me", token, `{"name":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name status = %d", rec.Code)
	}

	if rec := call(h, http.MethodDelete, "/users/me", token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, err := svc.GetByID(context.Background(), info.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetByID after delete error = %v", err)
	}
}

func TestAdminRoutes(t *testing.T) {
	svc, _, h := setup(t)
	info, _ := svc.Create(context.Background(), "a@example.com", "hash", "A")

	if rec := call(h, http.MethodGet, "/admin/users", "user:"+info.ID, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin list status = %d, want 403", rec.Code)
	}

	if rec := call(h, http.MethodGet, "/admin/users", "admin:root", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin list status = %d", rec.Code)
	}

	rec := call(h, http.MethodPut, "/admin/users/"+info.ID+"/role", "admin:root", `{"role":"admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("role status = %d body = %s", rec.Code, rec.Body)
	}
	got, _ := svc.GetByID(context.Background(), info.ID)
	if got.Role != RoleAdmin {
		t.Fatalf("role = %q", got.Role)
	}

	if rec := call(h, http.MethodPut, "/admin/users/"+info.ID+"/role", "admin:root", `{"role":"owner"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid role status = %d", rec.Code)
	}
}

func TestDuplicateEmail(t *testing.T) {
	svc, _, _ := setup(t)
	if _, err := svc.Create(context.Background(), "a@example.com", "h", "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), "A@example.com", "h", "B"); !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("error = %v, want ErrDuplicateKey", err)
	}
}
