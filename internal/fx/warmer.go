package fx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Warmer calls Service.Get on a fixed interval. Get only reaches the
// upstreams when the stored quote is missing or stale.
type Warmer struct {
	sched gocron.Scheduler
}

// StartWarmer schedules the warm-up job, running it once immediately.
func StartWarmer(svc *Service, interval time.Duration) (*Warmer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("fx: warm interval must be positive, got %s", interval)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			resp := svc.Get(ctx)
			slog.Debug("fx cache warmed", "source", resp.Source, "rate", resp.Rate)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule warm job: %w", err)
	}

	sched.Start()
	slog.Info("fx warmer started", "interval", interval)
	return &Warmer{sched: sched}, nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (w *Warmer) Stop() error {
	return w.sched.Shutdown()
}
