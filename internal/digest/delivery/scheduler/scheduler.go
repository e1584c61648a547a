package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticker-digest/internal/digest/repository"
	"ticker-digest/internal/digest/service"
	"ticker-digest/pkg/logger"

	"github.com/robfig/cron/v3"
)

// DigestScheduler triggers digest runs on a cron schedule.
type DigestScheduler interface {
	Start(ctx context.Context)
	Next(now time.Time) time.Time
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewDigestScheduler validates the cron expression and creates a scheduler for runner.
func NewDigestScheduler(expression string, runner service.DigestRunner, log *logger.Logger) (DigestScheduler, error) {
	schedule, err := cronParser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return &digestScheduler{
		expression: expression,
		schedule:   schedule,
		runner:     runner,
		logger:     log,
	}, nil
}

type digestScheduler struct {
	expression string
	schedule   cron.Schedule
	runner     service.DigestRunner
	logger     *logger.Logger
}

func (s *digestScheduler) Next(now time.Time) time.Time {
	return s.schedule.Next(now)
}

// Start runs the cron loop until ctx is cancelled, then waits for an active run to finish.
// A tick that fires while a run is still active is skipped.
func (s *digestScheduler) Start(ctx context.Context) {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.trigger(ctx) }))
	c.Start()

	s.logger.Info("Digest scheduler started",
		logger.StringField("cron", s.expression),
		logger.Field("next_run", s.Next(time.Now())),
	)

	<-ctx.Done()
	s.logger.Info("Digest scheduler stopping")
	<-c.Stop().Done()
}

func (s *digestScheduler) trigger(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	stats, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, service.ErrRunInProgress), errors.Is(err, repository.ErrLockHeld):
		s.logger.Warn("Skipping scheduled digest run", logger.ErrorField(err))
	case err != nil:
		s.logger.Error("Scheduled digest run failed", logger.ErrorField(err))
	default:
		s.logger.Info("Scheduled digest run finished",
			logger.IntField("users_processed", stats.UsersProcessed),
			logger.Field("next_run", s.Next(time.Now())),
		)
	}
}
