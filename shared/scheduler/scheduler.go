package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"transcript-assistant/shared/logging"
)

// Job is a unit of background work run on a cron schedule.
type Job interface {
	Name() string
	RunOnce(ctx context.Context) error
}

// Scheduler runs background jobs alongside the API server.
type Scheduler struct {
	cron   *cron.Cron
	jobs   []Job
	logger zerolog.Logger
}

func New() *Scheduler {
	logger := logging.WithComponent("scheduler")
	cronLogger := cronLogger{logger: logger}
	return &Scheduler{
		// Prevent overlapping runs
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cronLogger), cron.WithChain(cron.SkipIfStillRunning(cronLogger))),
		logger: logger,
	}
}

// Add registers job under a six-field cron spec. An empty spec disables the
// job.
func (s *Scheduler) Add(ctx context.Context, spec string, job Job) error {
	if spec == "" {
		s.logger.Info().Str("job", job.Name()).Msg("job disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		_ = s.RunOnce(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job %s: %w", job.Name(), err)
	}
	s.jobs = append(s.jobs, job)
	s.logger.Info().Str("job", job.Name()).Str("schedule", spec).Msg("job scheduled")
	return nil
}

// Start runs the scheduled jobs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("scheduler started")

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) RunOnce(ctx context.Context, job Job) error {
	start := time.Now()
	if err := job.RunOnce(ctx); err != nil {
		s.logger.Error().Str("job", job.Name()).Dur("duration", time.Since(start)).Err(err).Msg("job failed")
		return fmt.Errorf("%s run failed: %w", job.Name(), err)
	}
	s.logger.Debug().Str("job", job.Name()).Dur("duration", time.Since(start)).Msg("job completed")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
