// AngelaMos | 2026
// gate.go

package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/socialai/internal/profile"
)

var ErrExceeded = errors.New("daily generation limit reached")

// ExceededError carries the remaining count seen at decision time. It can be
// negative when a downgraded account is already over the free limit.
type ExceededError struct {
	Remaining int
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s (remaining %d)", ErrExceeded, e.Remaining)
}

func (e *ExceededError) Is(target error) bool {
	return target == ErrExceeded
}

// Store is the slice of the profile repository the gate writes through.
type Store interface {
	ResetDaily(ctx context.Context, id, today string) error
	IncrementDaily(ctx context.Context, id, today string, limit int) (int, error)
}

type Decision struct {
	Limit     int
	Used      int
	Remaining int
	Reset     bool
}

type Gate struct {
	store Store
}

func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

func Limit(isPro bool) int {
	return profile.DailyLimit(isPro)
}

// Check applies rollover and decides admission. A profile stamped with an
// earlier date is zeroed and restamped in place, and the reset is written
// before the decision whether or not the request is admitted. A failed reset
// write only logs: the increment statement rolls the date over on its own.
func (g *Gate) Check(
	ctx context.Context,
	p *profile.Profile,
	today string,
) (Decision, error) {
	var reset bool
	if p.LastGenerationDate != today {
		if err := g.store.ResetDaily(ctx, p.ID, today); err != nil {
			slog.WarnContext(ctx, "persist daily reset",
				"user_id", p.ID,
				"today", today,
				"error", err,
			)
		}
		p.DailyGenerations = 0
		p.LastGenerationDate = today
		reset = true
	}

	limit := Limit(p.IsPro)
	d := Decision{
		Limit:     limit,
		Used:      p.DailyGenerations,
		Remaining: limit - p.DailyGenerations,
		Reset:     reset,
	}

	if d.Remaining <= 0 {
		return d, &ExceededError{Remaining: d.Remaining}
	}

	return d, nil
}

// Consume counts one generation against today and returns what is left.
// The store refuses the write once the limit is used up, which surfaces as
// profile.ErrLimitReached.
func (g *Gate) Consume(
	ctx context.Context,
	p *profile.Profile,
	today string,
) (int, error) {
	limit := Limit(p.IsPro)

	count, err := g.store.IncrementDaily(ctx, p.ID, today, limit)
	if err != nil {
		return 0, fmt.Errorf("consume generation: %w", err)
	}

	p.DailyGenerations = count
	p.LastGenerationDate = today

	return limit - count, nil
}
