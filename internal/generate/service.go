// AngelaMos | 2026
// service.go

package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/llm"
	"github.com/carterperez-dev/socialai/internal/profile"
	"github.com/carterperez-dev/socialai/internal/prompt"
	"github.com/carterperez-dev/socialai/internal/quota"
)

type Stage int

const (
	StageIdle Stage = iota
	StageAuthorizing
	StageQuotaChecking
	StageFetching
	StagePrompting
	StageGenerating
	StageParsing
	StagePersisting
	StageDone
)

var stageNames = [...]string{
	StageIdle:          "idle",
	StageAuthorizing:   "authorizing",
	StageQuotaChecking: "quota_checking",
	StageFetching:      "fetching",
	StagePrompting:     "prompting",
	StageGenerating:    "generating",
	StageParsing:       "parsing",
	StagePersisting:    "persisting",
	StageDone:          "done",
}

func (s Stage) String() string {
	if s < StageIdle || s > StageDone {
		return "unknown"
	}
	return stageNames[s]
}

type ProfileLoader interface {
	Ensure(ctx context.Context, userID string) (*profile.Profile, error)
}

type ContentResolver interface {
	Resolve(ctx context.Context, content string) (string, error)
}

type Request struct {
	Content  string
	Platform string
}

type Result struct {
	Posts                []string
	RemainingGenerations int
}

type Service struct {
	profiles  ProfileLoader
	gate      *quota.Gate
	content   ContentResolver
	generator llm.Generator
	now       func() time.Time
}

func NewService(
	profiles ProfileLoader,
	gate *quota.Gate,
	content ContentResolver,
	generator llm.Generator,
) *Service {
	return &Service{
		profiles:  profiles,
		gate:      gate,
		content:   content,
		generator: generator,
		now:       time.Now,
	}
}

// run tracks the current stage of one request and turns failures into
// *Error values tagged with it.
type run struct {
	ctx   context.Context
	stage Stage
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	core.AddSpanEvent(r.ctx, "generate.stage",
		attribute.String("stage", stage.String()),
	)
}

func (r *run) fail(kind Kind, err error) *Error {
	e := &Error{Kind: kind, Stage: r.stage, Err: err}
	core.SetSpanError(r.ctx, e)
	return e
}

// Generate runs one request through authorization, quota, content
// resolution, prompting, the model call, parsing and the counter update.
// Quota is only consumed once the model has answered.
func (s *Service) Generate(
	ctx context.Context,
	userID string,
	req Request,
) (*Result, error) {
	ctx, span := core.StartSpan(ctx, "generate.Generate",
		attribute.String("generate.platform", req.Platform),
	)
	defer span.End()

	r := &run{ctx: ctx, stage: StageIdle}

	r.enter(StageAuthorizing)
	if userID == "" {
		return nil, r.fail(KindUnauthorized, core.ErrUnauthorized)
	}
	if strings.TrimSpace(req.Content) == "" || req.Platform == "" {
		return nil, r.fail(KindValidation, core.ErrInvalidInput)
	}

	r.enter(StageQuotaChecking)
	p, err := s.profiles.Ensure(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrUnavailable) {
			return nil, r.fail(KindProfileUnavailable, err)
		}
		return nil, r.fail(KindInternal, err)
	}

	today := profile.Today(s.now())
	decision, err := s.gate.Check(ctx, p, today)
	if err != nil {
		e := r.fail(KindQuotaExceeded, err)
		e.Remaining = decision.Remaining
		return nil, e
	}
	span.SetAttributes(
		attribute.Int("quota.limit", decision.Limit),
		attribute.Int("quota.remaining", decision.Remaining),
	)

	r.enter(StageFetching)
	text, err := s.content.Resolve(ctx, req.Content)
	if err != nil {
		return nil, r.fail(KindFetch, err)
	}

	r.enter(StagePrompting)
	platform, err := prompt.ParsePlatform(req.Platform)
	if err != nil {
		return nil, r.fail(KindInvalidPlatform, err)
	}
	fullPrompt, err := prompt.Build(platform, text)
	if err != nil {
		return nil, r.fail(KindInvalidPlatform, err)
	}

	r.enter(StageGenerating)
	raw, err := s.generator.Generate(ctx, fullPrompt)
	if err != nil {
		return nil, r.fail(upstreamKind(llm.Classify(err).Kind), err)
	}

	r.enter(StageParsing)
	posts := ParsePosts(raw)

	r.enter(StagePersisting)
	remaining, err := s.gate.Consume(ctx, p, today)
	if err != nil {
		remaining = decision.Remaining - 1
		if errors.Is(err, profile.ErrLimitReached) {
			remaining = 0
		}
		slog.WarnContext(ctx, "generation count not persisted",
			"kind", KindPersistenceWarning.String(),
			"user_id", userID,
			"error", err,
		)
	}

	r.enter(StageDone)
	span.SetAttributes(attribute.Int("generate.posts", len(posts)))

	return &Result{
		Posts:                posts,
		RemainingGenerations: max(remaining, 0),
	}, nil
}
