package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Prewarmer reloads every question set into the cache.
type Prewarmer interface {
	PrewarmAll(ctx context.Context) error
}

// CacheRefreshWorker re-warms the question set cache on a cron schedule so
// republished sets reach new sessions before the cached payload expires.
type CacheRefreshWorker struct {
	sets     Prewarmer
	schedule cron.Schedule
	spec     string
	log      zerolog.Logger
}

// NewCacheRefreshWorker creates a worker for spec, a standard cron expression
// or descriptor such as "@every 30m".
func NewCacheRefreshWorker(sets Prewarmer, spec string, log zerolog.Logger) (*CacheRefreshWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	return &CacheRefreshWorker{
		sets:     sets,
		schedule: schedule,
		spec:     spec,
		log:      log.With().Str("component", "cache_refresh_worker").Logger(),
	}, nil
}

// Next reports when the refresh after t runs.
func (w *CacheRefreshWorker) Next(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// Start runs the schedule until ctx is done. Call in a goroutine.
func (w *CacheRefreshWorker) Start(ctx context.Context) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	c.Schedule(w.schedule, cron.FuncJob(func() { w.refresh(ctx) }))

	c.Start()
	w.log.Info().Str("schedule", w.spec).Msg("Worker started")

	<-ctx.Done()

	w.log.Info().Msg("Worker stopping...")
	<-c.Stop().Done()
	w.log.Info().Msg("Worker stopped")
}

func (w *CacheRefreshWorker) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	if err := w.sets.PrewarmAll(ctx); err != nil {
		w.log.Error().Err(err).Msg("Cache refresh failed")
		return
	}
	w.log.Debug().Dur("took", time.Since(start)).Msg("Cache refreshed")
}
