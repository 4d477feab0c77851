package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-practice/internal/model"
)

// QuestionSetRepository handles question set data access.
type QuestionSetRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionSetRepository creates a new QuestionSetRepository.
func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{pool: pool}
}

// GetBySlug retrieves a set by kind and slug. Returns pgx.ErrNoRows if absent.
func (r *QuestionSetRepository) GetBySlug(ctx context.Context, kind model.SetKind, slug string) (*model.QuestionSet, error) {
	s := &model.QuestionSet{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, kind, slug, title, duration_minutes, created_at
		 FROM question_sets WHERE kind = $1 AND slug = $2`,
		string(kind), slug,
	).Scan(&s.ID, &s.Kind, &s.Slug, &s.Title, &s.DurationMinutes, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListAll retrieves every set, grouped by kind.
func (r *QuestionSetRepository) ListAll(ctx context.Context) ([]model.QuestionSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, kind, slug, title, duration_minutes, created_at
		 FROM question_sets ORDER BY kind, slug`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []model.QuestionSet
	for rows.Next() {
		var s model.QuestionSet
		if err := rows.Scan(&s.ID, &s.Kind, &s.Slug, &s.Title, &s.DurationMinutes, &s.CreatedAt); err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}
