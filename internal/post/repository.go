// AngelaMos | 2026
// repository.go

package post

import (
	"context"
	"fmt"
	"strings"

	"github.com/carterperez-dev/socialai/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Post) error
	ListByUser(ctx context.Context, params ListPostsParams) ([]Post, int, error)
	Delete(ctx context.Context, id, userID string) error
	Count(ctx context.Context) (int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Post) error {
	query := `
		INSERT INTO posts (id, user_id, original_content, platform, generated_text, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &p.CreatedAt, query,
		p.ID,
		p.UserID,
		p.OriginalContent,
		p.Platform,
		p.GeneratedText,
		p.Metadata,
	)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	params ListPostsParams,
) ([]Post, int, error) {
	params.Normalize()

	conditions := []string{"user_id = $1"}
	args := []any{params.UserID}
	argIdx := 2

	if params.Platform != "" {
		conditions = append(conditions, fmt.Sprintf("platform = $%d", argIdx))
		args = append(args, params.Platform)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM posts WHERE " + whereClause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, original_content, platform, generated_text,
		       metadata, created_at
		FROM posts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var posts []Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	return posts, total, nil
}

func (r *repository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts`); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
