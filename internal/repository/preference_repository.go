package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-practice/internal/config"
)

// preferenceTTL keeps a client's choice across visits; every write refreshes it.
const preferenceTTL = 180 * 24 * time.Hour

// PreferenceRepository stores per-client preferences in Redis.
type PreferenceRepository struct {
	rdb *redis.Client
}

// NewPreferenceRepository creates a new PreferenceRepository.
func NewPreferenceRepository(rdb *redis.Client) *PreferenceRepository {
	return &PreferenceRepository{rdb: rdb}
}

// GetExamMode returns the stored exam mode. An absent key means enabled.
func (r *PreferenceRepository) GetExamMode(ctx context.Context, clientID string) (bool, error) {
	v, err := r.rdb.Get(ctx, config.CacheKey.ClientExamModeKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, err
	}
	return v != "0", nil
}

// SetExamMode stores the exam mode.
func (r *PreferenceRepository) SetExamMode(ctx context.Context, clientID string, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	return r.rdb.Set(ctx, config.CacheKey.ClientExamModeKey(clientID), v, preferenceTTL).Err()
}
