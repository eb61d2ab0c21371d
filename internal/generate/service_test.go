// AngelaMos | 2026
// service_test.go

package generate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carterperez-dev/socialai/internal/content"
	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/llm"
	"github.com/carterperez-dev/socialai/internal/profile"
	"github.com/carterperez-dev/socialai/internal/quota"
)

const testToday = "2026-03-01"

type profileRepo struct {
	mu        sync.Mutex
	profiles  map[string]*profile.Profile
	incErr    error
	getErr    error
	createErr error
	resets    int
}

func newProfileRepo(profiles ...profile.Profile) *profileRepo {
	r := &profileRepo{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		cp := p
		r.profiles[p.ID] = &cp
	}
	return r
}

func (r *profileRepo) get(id string) profile.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.profiles[id]
}

func (r *profileRepo) GetByID(_ context.Context, id string) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *profileRepo) Create(_ context.Context, p *profile.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *profileRepo) ResetDaily(_ context.Context, id, today string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	p := r.profiles[id]
	p.DailyGenerations = 0
	p.LastGenerationDate = today
	return nil
}

func (r *profileRepo) IncrementDaily(_ context.Context, id, today string, limit int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.incErr != nil {
		return 0, r.incErr
	}
	p, ok := r.profiles[id]
	if !ok {
		return 0, profile.ErrLimitReached
	}
	if p.LastGenerationDate != today {
		p.DailyGenerations = 1
		p.LastGenerationDate = today
		return 1, nil
	}
	if p.DailyGenerations+1 > limit {
		return 0, profile.ErrLimitReached
	}
	p.DailyGenerations++
	return p.DailyGenerations, nil
}

func (r *profileRepo) SetPro(context.Context, string, bool) (*profile.Profile, error) {
	return nil, errors.New("not used")
}

func (r *profileRepo) Stats(context.Context, string) (*profile.Stats, error) {
	return nil, errors.New("not used")
}

type fakeGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: status 502", content.ErrFetch)
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func newTestService(repo *profileRepo, gen llm.Generator) *Service {
	profiles := profile.NewService(repo)
	svc := NewService(
		profiles,
		quota.NewGate(repo),
		content.NewFetcher(content.Options{}),
		gen,
	)
	svc.now = fixedNow
	return svc
}

func asError(t *testing.T, err error) *Error {
	t.Helper()
	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %v (%T), want *Error", err, err)
	}
	return genErr
}

func TestGenerateLastFreeGeneration(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 4, LastGenerationDate: testToday})
	gen := &fakeGenerator{text: "Post one #a\n\nPost two #b"}
	svc := newTestService(repo, gen)

	res, err := svc.Generate(context.Background(), "u1", Request{Content: "My article", Platform: "twitter"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !slices.Equal(res.Posts, []string{"Post one #a", "Post two #b"}) {
		t.Fatalf("Posts = %q", res.Posts)
	}
	if res.RemainingGenerations != 0 {
		t.Fatalf("RemainingGenerations = %d, want 0", res.RemainingGenerations)
	}
	if got := repo.get("u1").DailyGenerations; got != 5 {
		t.Fatalf("persisted DailyGenerations = %d, want 5", got)
	}
	if !strings.Contains(gen.prompts[0], "Content to transform:\nMy article\n\n") {
		t.Fatalf("prompt = %q", gen.prompts[0])
	}
}

func TestGenerateAtLimitRejectsWithoutBackendCall(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 5, LastGenerationDate: testToday})
	gen := &fakeGenerator{text: "x"}
	svc := newTestService(repo, gen)

	_, err := svc.Generate(context.Background(), "u1", Request{Content: "My article", Platform: "twitter"})

	genErr := asError(t, err)
	if genErr.Kind != KindQuotaExceeded || genErr.Remaining != 0 {
		t.Fatalf("error = %+v, want quota exceeded with 0 remaining", genErr)
	}
	if !errors.Is(err, quota.ErrExceeded) {
		t.Fatal("error does not wrap quota.ErrExceeded")
	}
	if gen.calls() != 0 {
		t.Fatal("backend was called")
	}
	if got := repo.get("u1").DailyGenerations; got != 5 {
		t.Fatalf("DailyGenerations = %d, want 5", got)
	}
}

func TestGenerateRemainingMatchesLimitMinusNext(t *testing.T) {
	for _, isPro := range []bool{false, true} {
		limit := quota.Limit(isPro)
		for before := 0; before < limit; before++ {
			repo := newProfileRepo(profile.Profile{
				ID: "u1", IsPro: isPro, DailyGenerations: before, LastGenerationDate: testToday,
			})
			svc := newTestService(repo, &fakeGenerator{text: "A"})

			res, err := svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "linkedin"})
			if err != nil {
				t.Fatalf("pro=%v before=%d: %v", isPro, before, err)
			}
			if want := limit - (before + 1); res.RemainingGenerations != want {
				t.Fatalf("pro=%v before=%d: remaining = %d, want %d",
					isPro, before, res.RemainingGenerations, want)
			}
		}
	}
}

func TestGenerateBackendFailureDoesNotConsume(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"auth", &llm.UpstreamError{Kind: llm.KindAuth, Cause: errors.New("bad key")}, KindUpstreamAuth},
		{"quota", &llm.UpstreamError{Kind: llm.KindQuota, Cause: errors.New("exhausted")}, KindUpstreamQuota},
		{"model", &llm.UpstreamError{Kind: llm.KindModel, Cause: errors.New("no model")}, KindUpstreamModel},
		{"unknown", errors.New("connection reset"), KindUpstreamUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 2, LastGenerationDate: testToday})
			svc := newTestService(repo, &fakeGenerator{err: tc.err})

			_, err := svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "facebook"})

			genErr := asError(t, err)
			if genErr.Kind != tc.want || genErr.Stage != StageGenerating {
				t.Fatalf("error = %+v, want %s at generating", genErr, tc.want)
			}
			if got := repo.get("u1").DailyGenerations; got != 2 {
				t.Fatalf("DailyGenerations = %d after failure, want 2", got)
			}
		})
	}
}

func TestGenerateRollsOverStaleProfile(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 5, LastGenerationDate: "2026-02-28"})
	svc := newTestService(repo, &fakeGenerator{text: "A\n\nB"})

	res, err := svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "instagram"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.RemainingGenerations != 4 {
		t.Fatalf("RemainingGenerations = %d, want 4", res.RemainingGenerations)
	}
	stored := repo.get("u1")
	if stored.DailyGenerations != 1 || stored.LastGenerationDate != testToday || repo.resets != 1 {
		t.Fatalf("stored = %+v resets = %d", stored, repo.resets)
	}
}

func TestGenerateCreatesMissingProfile(t *testing.T) {
	repo := newProfileRepo()
	svc := newTestService(repo, &fakeGenerator{text: "A"})

	res, err := svc.Generate(context.Background(), "new-user", Request{Content: "c", Platform: "twitter"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.RemainingGenerations != 4 {
		t.Fatalf("RemainingGenerations = %d, want 4", res.RemainingGenerations)
	}
	if got := repo.get("new-user").DailyGenerations; got != 1 {
		t.Fatalf("DailyGenerations = %d, want 1", got)
	}
}

func TestGenerateEarlyFailures(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		req       Request
		repo      func() *profileRepo
		resolver  ContentResolver
		wantKind  Kind
		wantStage Stage
	}{
		{
			name:      "no caller",
			userID:    "",
			req:       Request{Content: "c", Platform: "twitter"},
			wantKind:  KindUnauthorized,
			wantStage: StageAuthorizing,
		},
		{
			name:      "blank content",
			userID:    "u1",
			req:       Request{Content: "   ", Platform: "twitter"},
			wantKind:  KindValidation,
			wantStage: StageAuthorizing,
		},
		{
			name:      "missing platform",
			userID:    "u1",
			req:       Request{Content: "c"},
			wantKind:  KindValidation,
			wantStage: StageAuthorizing,
		},
		{
			name:   "profile cannot be created",
			userID: "ghost",
			req:    Request{Content: "c", Platform: "twitter"},
			repo: func() *profileRepo {
				r := newProfileRepo()
				r.createErr = errors.New("insert failed")
				return r
			},
			wantKind:  KindProfileUnavailable,
			wantStage: StageQuotaChecking,
		},
		{
			name:   "profile lookup fails",
			userID: "u1",
			req:    Request{Content: "c", Platform: "twitter"},
			repo: func() *profileRepo {
				r := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 1, LastGenerationDate: testToday})
				r.getErr = errors.New("get profile: connection refused")
				return r
			},
			wantKind:  KindInternal,
			wantStage: StageQuotaChecking,
		},
		{
			name:      "fetch failure",
			userID:    "u1",
			req:       Request{Content: "https://example.invalid/post", Platform: "twitter"},
			resolver:  failingResolver{},
			wantKind:  KindFetch,
			wantStage: StageFetching,
		},
		{
			name:      "unknown platform",
			userID:    "u1",
			req:       Request{Content: "c", Platform: "tiktok"},
			wantKind:  KindInvalidPlatform,
			wantStage: StagePrompting,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 1, LastGenerationDate: testToday})
			if tc.repo != nil {
				repo = tc.repo()
			}
			gen := &fakeGenerator{text: "A"}
			svc := newTestService(repo, gen)
			if tc.resolver != nil {
				svc.content = tc.resolver
			}

			_, err := svc.Generate(context.Background(), tc.userID, tc.req)

			genErr := asError(t, err)
			if genErr.Kind != tc.wantKind || genErr.Stage != tc.wantStage {
				t.Fatalf("error = %s at %s, want %s at %s",
					genErr.Kind, genErr.Stage, tc.wantKind, tc.wantStage)
			}
			if gen.calls() != 0 {
				t.Fatal("backend was called")
			}
			if p, ok := repo.profiles["u1"]; ok && p.DailyGenerations != 1 {
				t.Fatalf("DailyGenerations = %d, want 1", p.DailyGenerations)
			}
		})
	}
}

func TestGeneratePersistenceFailureStillReturnsPosts(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 1, LastGenerationDate: testToday})
	repo.incErr = errors.New("connection refused")
	svc := newTestService(repo, &fakeGenerator{text: "A\n\nB\n\nC"})

	res, err := svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "twitter"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(res.Posts) != 3 {
		t.Fatalf("Posts = %q", res.Posts)
	}
	if res.RemainingGenerations != 3 {
		t.Fatalf("RemainingGenerations = %d, want 3", res.RemainingGenerations)
	}
}

func TestGenerateConcurrentRequestsCannotExceedLimit(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", DailyGenerations: 3, LastGenerationDate: testToday})
	svc := newTestService(repo, &fakeGenerator{text: "A"})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "twitter"})
		}()
	}
	wg.Wait()

	if got := repo.get("u1").DailyGenerations; got != profile.FreeDailyLimit {
		t.Fatalf("DailyGenerations = %d, want %d", got, profile.FreeDailyLimit)
	}
}

func TestGenerateEmptyModelOutput(t *testing.T) {
	repo := newProfileRepo(profile.Profile{ID: "u1", LastGenerationDate: testToday})
	svc := newTestService(repo, &fakeGenerator{text: "\n\n  \n\n"})

	res, err := svc.Generate(context.Background(), "u1", Request{Content: "c", Platform: "twitter"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Posts == nil || len(res.Posts) != 0 {
		t.Fatalf("Posts = %#v, want empty non-nil slice", res.Posts)
	}
	if got := repo.get("u1").DailyGenerations; got != 1 {
		t.Fatalf("DailyGenerations = %d, want 1", got)
	}
}
