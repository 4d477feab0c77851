package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/model"
)

// Domain Errors
var (
	ErrSetNotFound = errors.New("question set not found")
	ErrInvalidKind = errors.New("unknown question set kind")
)

// SetStore is the question set source.
type SetStore interface {
	GetBySlug(ctx context.Context, kind model.SetKind, slug string) (*model.QuestionSet, error)
	ListAll(ctx context.Context) ([]model.QuestionSet, error)
}

// QuestionStore is the question source.
type QuestionStore interface {
	ListBySet(ctx context.Context, setID uuid.UUID) ([]model.Question, error)
}

// QuestionOptions are the paging and timing knobs of the question supply.
type QuestionOptions struct {
	PageSize         int
	PageDuration     time.Duration
	MockTestDuration time.Duration
	CacheTTL         time.Duration
}

// QuestionService supplies question sets one page at a time, caching each set
// with all of its questions in Redis.
type QuestionService struct {
	sets      SetStore
	questions QuestionStore
	rdb       *redis.Client
	opts      QuestionOptions
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	sets SetStore,
	questions QuestionStore,
	rdb *redis.Client,
	opts QuestionOptions,
	log zerolog.Logger,
) *QuestionService {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &QuestionService{
		sets:      sets,
		questions: questions,
		rdb:       rdb,
		opts:      opts,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// Payload returns the set and all of its questions, from Redis when cached.
// A Redis failure falls back to the database.
func (s *QuestionService) Payload(ctx context.Context, kind model.SetKind, slug string) (*model.QuestionSetPayload, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}

	key := config.CacheKey.QuestionSetPayloadKey(string(kind), slug)
	data, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var payload model.QuestionSetPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("key", key).Msg("Corrupt cached payload, reloading")
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn().Err(err).Str("key", key).Msg("Redis read failed, falling back to database")
	}

	set, err := s.sets.GetBySlug(ctx, kind, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("get set: %w", err)
	}
	return s.Warm(ctx, set)
}

// Warm loads a set's questions from PostgreSQL and caches the payload.
// A cache write failure is logged; the payload is still returned.
func (s *QuestionService) Warm(ctx context.Context, set *model.QuestionSet) (*model.QuestionSetPayload, error) {
	questions, err := s.questions.ListBySet(ctx, set.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	payload := &model.QuestionSetPayload{Set: *set, Questions: questions}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	key := config.CacheKey.QuestionSetPayloadKey(string(set.Kind), set.Slug)
	if err := s.rdb.Set(ctx, key, payloadJSON, s.opts.CacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache question set")
		return payload, nil
	}

	s.log.Debug().
		Str("set", set.Slug).
		Str("kind", string(set.Kind)).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return payload, nil
}

// PrewarmAll loads every set into Redis on application startup.
func (s *QuestionService) PrewarmAll(ctx context.Context) error {
	sets, err := s.sets.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list sets: %w", err)
	}

	if len(sets) == 0 {
		s.log.Info().Msg("No question sets to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(sets)).Msg("Prewarming question sets...")

	warmed := 0
	for i := range sets {
		if _, err := s.Warm(ctx, &sets[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("set", sets[i].Slug).
				Msg("Failed to warm set, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(sets)).
		Msg("Prewarming complete")
	return nil
}

// Summary returns set metadata with its page count.
func (s *QuestionService) Summary(ctx context.Context, kind model.SetKind, slug string) (*model.SetSummary, error) {
	payload, err := s.Payload(ctx, kind, slug)
	if err != nil {
		return nil, err
	}

	size := s.pageSize(kind, 0, len(payload.Questions))
	return &model.SetSummary{
		QuestionSet:   payload.Set,
		QuestionCount: len(payload.Questions),
		TotalPages:    totalPages(len(payload.Questions), size),
		PageSize:      size,
	}, nil
}

// Page returns one page of a set. Pages are 1-based and clamped to the set;
// an empty set has a single empty page. Mock tests are always one page.
func (s *QuestionService) Page(ctx context.Context, kind model.SetKind, slug string, page, pageSize int) (*model.QuestionPage, error) {
	payload, err := s.Payload(ctx, kind, slug)
	if err != nil {
		return nil, err
	}

	n := len(payload.Questions)
	size := s.pageSize(kind, pageSize, n)
	total := totalPages(n, size)
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * size
	end := min(start+size, n)
	questions := []model.Question{}
	if start < end {
		questions = payload.Questions[start:end]
	}

	return &model.QuestionPage{
		Set:        payload.Set,
		Questions:  questions,
		Page:       page,
		PageSize:   size,
		TotalPages: total,
		TotalItems: n,
	}, nil
}

// Duration is the session countdown for a set.
func (s *QuestionService) Duration(set model.QuestionSet) time.Duration {
	if set.Kind.Paged() {
		return s.opts.PageDuration
	}
	if set.DurationMinutes > 0 {
		return time.Duration(set.DurationMinutes) * time.Minute
	}
	return s.opts.MockTestDuration
}

func (s *QuestionService) pageSize(kind model.SetKind, requested, n int) int {
	if !kind.Paged() {
		return max(n, 1)
	}
	if requested > 0 {
		return requested
	}
	return s.opts.PageSize
}

func totalPages(n, size int) int {
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}
