package interest

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires the accrual job on a cron schedule, once per period.
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *slog.Logger
}

// NewScheduler prepares a scheduler for the given cron expression
// (e.g. "5 0 * * *" for five past midnight UTC).
func NewScheduler(job *Job, spec string, logger *slog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	s := &Scheduler{cron: c, job: job, logger: logger}

	if _, err := c.AddFunc(spec, s.fire); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("accrual scheduler stop timed out")
	}
}

func (s *Scheduler) fire() {
	period := PeriodForTime(time.Now())
	if _, err := s.job.RunForPeriod(context.Background(), period); err != nil {
		s.logger.Error("scheduled accrual run failed", "period", period, "error", err)
	}
}
