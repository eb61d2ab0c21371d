// AngelaMos | 2026
// repository.go

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/socialai/internal/core"
)

// ErrLimitReached is returned by IncrementDaily when the conditional update
// matched no row: either the limit is already used up for today or the
// profile does not exist.
var ErrLimitReached = errors.New("daily generation limit reached")

type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	ResetDaily(ctx context.Context, id, today string) error
	IncrementDaily(ctx context.Context, id, today string, limit int) (int, error)
	SetPro(ctx context.Context, id string, isPro bool) (*Profile, error)
	Stats(ctx context.Context, today string) (*Stats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const profileColumns = `
	id, is_pro, daily_generations,
	to_char(last_generation_date, 'YYYY-MM-DD') AS last_generation_date,
	created_at, updated_at`

func (r *repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM user_profiles
		WHERE id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (id, is_pro, daily_generations, last_generation_date)
		VALUES ($1, $2, $3, $4::date)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.IsPro,
		p.DailyGenerations,
		p.LastGenerationDate,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create profile: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create profile: %w", err)
	}

	return nil
}

func (r *repository) ResetDaily(ctx context.Context, id, today string) error {
	query := `
		UPDATE user_profiles
		SET daily_generations = 0, last_generation_date = $2::date, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, today)
	if err != nil {
		return fmt.Errorf("reset daily generations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset daily generations: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("reset daily generations: %w", core.ErrNotFound)
	}

	return nil
}

// IncrementDaily counts one generation in a single statement. A row stamped
// with an older date restarts at 1; a row already at limit for today is left
// untouched. There is no read between the check and the write.
func (r *repository) IncrementDaily(
	ctx context.Context,
	id, today string,
	limit int,
) (int, error) {
	query := `
		UPDATE user_profiles
		SET daily_generations = CASE
				WHEN last_generation_date = $2::date THEN daily_generations + 1
				ELSE 1
			END,
			last_generation_date = $2::date,
			updated_at = NOW()
		WHERE id = $1
		  AND (last_generation_date <> $2::date OR daily_generations + 1 <= $3)
		RETURNING daily_generations`

	var count int
	err := r.db.GetContext(ctx, &count, query, id, today, limit)
	if core.IsNoRows(err) {
		return 0, fmt.Errorf("increment daily generations: %w", ErrLimitReached)
	}
	if err != nil {
		return 0, fmt.Errorf("increment daily generations: %w", err)
	}

	return count, nil
}

func (r *repository) SetPro(
	ctx context.Context,
	id string,
	isPro bool,
) (*Profile, error) {
	query := `
		UPDATE user_profiles
		SET is_pro = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + profileColumns

	var p Profile
	err := r.db.GetContext(ctx, &p, query, id, isPro)
	if core.IsNoRows(err) {
		return nil, fmt.Errorf("set tier: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set tier: %w", err)
	}

	return &p, nil
}

func (r *repository) Stats(ctx context.Context, today string) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) AS profiles,
			COUNT(*) FILTER (WHERE is_pro) AS pro_profiles,
			COALESCE(SUM(daily_generations) FILTER (
				WHERE last_generation_date = $1::date
			), 0) AS generations_today
		FROM user_profiles`

	var s Stats
	if err := r.db.GetContext(ctx, &s, query, today); err != nil {
		return nil, fmt.Errorf("profile stats: %w", err)
	}

	return &s, nil
}
