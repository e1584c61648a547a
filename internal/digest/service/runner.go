package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticker-digest/internal/digest/config"
	"ticker-digest/internal/digest/dto"
	"ticker-digest/internal/digest/repository"
	"ticker-digest/pkg/logger"
	"ticker-digest/pkg/metrics"
	"ticker-digest/pkg/telegram"
	"ticker-digest/pkg/utils"
)

// ErrRunInProgress is returned when a run is requested while another one is active in this process.
var ErrRunInProgress = errors.New("digest run already in progress")

// DigestRunner runs the digest pipeline over every eligible subscriber.
type DigestRunner interface {
	Run(ctx context.Context) (dto.DigestRunStats, error)
	InProgress() bool
	LastRun() (dto.DigestRunStats, bool)
}

// NewDigestRunner creates a new DigestRunner.
func NewDigestRunner(
	cfg *config.Config,
	log *logger.Logger,
	subscriberRepo repository.SubscriberRepository,
	runLockRepo repository.RunLockRepository,
	assembler DigestAssembler,
	notifier telegram.Notifier,
	runMetrics metrics.RunMetrics,
) DigestRunner {
	return &digestRunner{
		cfg:            cfg,
		logger:         log,
		subscriberRepo: subscriberRepo,
		runLockRepo:    runLockRepo,
		assembler:      assembler,
		notifier:       notifier,
		metrics:        runMetrics,
		sleep:          utils.SleepContext,
		now:            time.Now,
	}
}

type digestRunner struct {
	cfg            *config.Config
	logger         *logger.Logger
	subscriberRepo repository.SubscriberRepository
	runLockRepo    repository.RunLockRepository
	assembler      DigestAssembler
	notifier       telegram.Notifier
	metrics        metrics.RunMetrics
	sleep          Sleeper
	now            func() time.Time

	mu      sync.Mutex
	running bool
	last    *dto.DigestRunStats
}

func (r *digestRunner) InProgress() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// LastRun returns the stats of the most recent completed run.
func (r *digestRunner) LastRun() (dto.DigestRunStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return dto.DigestRunStats{}, false
	}
	return *r.last, true
}

// Run processes subscribers one after another. Per-ticker, per-item and per-subscriber
// failures are counted or logged and never stop the run; only failing to load
// subscribers or to take the run lock returns an error.
func (r *digestRunner) Run(ctx context.Context) (dto.DigestRunStats, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return dto.DigestRunStats{}, ErrRunInProgress
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	release, err := r.runLockRepo.Acquire(ctx)
	switch {
	case errors.Is(err, repository.ErrLockHeld):
		return dto.DigestRunStats{}, err
	case err != nil:
		r.logger.Warn("Run lock unavailable, continuing without it", logger.ErrorField(err))
	default:
		defer func() {
			if err := release(context.Background()); err != nil {
				r.logger.Warn("Failed to release run lock", logger.ErrorField(err))
			}
		}()
	}

	if r.cfg.Digest.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Digest.RunTimeout)
		defer cancel()
	}

	stats := dto.DigestRunStats{State: dto.RunStateInProgress, StartedAt: r.now()}

	subscribers, err := r.subscriberRepo.ListActive(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load subscribers: %w", err)
	}
	r.logger.Info("Starting digest run", logger.IntField("subscribers", len(subscribers)))

	for i, subscriber := range subscribers {
		if ctx.Err() != nil {
			r.logger.Warn("Digest run stopped, skipping remaining subscribers",
				logger.ErrorField(ctx.Err()),
				logger.IntField("remaining", len(subscribers)-i),
			)
			break
		}
		if len(subscriber.Tickers) == 0 {
			continue
		}

		if i > 0 {
			if err := r.sleep(ctx, r.cfg.Digest.SubscriberDelay); err != nil {
				r.logger.DebugContext(ctx, "Subscriber pacing interrupted")
			}
		}

		stats.UsersProcessed++
		r.logger.Info("Processing subscriber",
			logger.Int64Field("chat_id", subscriber.ChatID),
			logger.Field("tickers", subscriber.Tickers),
		)

		result := r.assembler.Assemble(ctx, subscriber)
		if !result.HadContent {
			r.logger.Info("No new content for subscriber", logger.Int64Field("chat_id", subscriber.ChatID))
			continue
		}
		stats.Add(result.Stats)

		if err := r.notifier.SendMessage(subscriber.ChatID, result.Message); err != nil {
			stats.Errors++
			r.logger.Error("Failed to deliver digest",
				logger.ErrorField(fmt.Errorf("%w: %v", repository.ErrDeliveryFailure, err)),
				logger.Int64Field("chat_id", subscriber.ChatID),
			)
			continue
		}
		r.logger.Info("Digest delivered", logger.Int64Field("chat_id", subscriber.ChatID))
	}

	stats.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	stats.State = dto.RunStateCompleted
	stats.FinishedAt = r.now()
	stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)

	r.logger.Info("Digest run completed",
		logger.IntField("users_processed", stats.UsersProcessed),
		logger.IntField("news_sent", stats.NewsSent),
		logger.IntField("llm_calls", stats.LLMCalls),
		logger.IntField("cache_hits", stats.CacheHits),
		logger.IntField("errors", stats.Errors),
		logger.Field("timed_out", stats.TimedOut),
		logger.Field("duration", stats.Duration.String()),
	)
	r.metrics.RecordRun(stats.UsersProcessed, stats.NewsSent, stats.LLMCalls, stats.CacheHits, stats.Errors, stats.Duration)

	r.mu.Lock()
	last := stats
	r.last = &last
	r.mu.Unlock()

	return stats, nil
}
