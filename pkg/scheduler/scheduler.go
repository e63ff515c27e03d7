package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// Job is a periodic background task. Run gets a context bounded by Timeout.
type Job struct {
	Name     string
	Interval time.Duration
	Timeout  time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	cron gocron.Scheduler
	log  *zap.Logger
	ctx  context.Context
	stop context.CancelFunc
}

func New(log *zap.Logger, jobs ...Job) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron,
		log:  log.With(zap.String("component", "scheduler")),
		ctx:  ctx,
		stop: stop,
	}

	for _, job := range jobs {
		if err := s.add(job); err != nil {
			stop()
			_ = cron.Shutdown()
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) add(job Job) error {
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = job.Interval
	}

	_, err := s.cron.NewJob(
		gocron.DurationJob(job.Interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(s.ctx, timeout)
			defer cancel()

			start := time.Now()
			if err := job.Run(ctx); err != nil {
				s.log.Error("Scheduled job failed", zap.String("job", job.Name), zap.Error(err))
				return
			}
			s.log.Debug("Scheduled job finished",
				zap.String("job", job.Name),
				zap.Duration("duration", time.Since(start)),
			)
		}),
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name, err)
	}

	return nil
}

// Run starts the jobs and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.log.Info("Scheduler started", zap.Int("jobs", len(s.cron.Jobs())))

	<-ctx.Done()

	s.stop()
	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}

	s.log.Info("Scheduler stopped")
	return nil
}
