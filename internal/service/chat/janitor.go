package chat

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// StartJanitor sweeps idle sessions every interval. Callers own the
// returned scheduler and must Shutdown it.
func StartJanitor(svc *Service, interval time.Duration, clock clockwork.Clock, logger *zap.Logger) (gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("janitor interval must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	scheduler, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("create janitor scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if removed := svc.Sweep(clock.Now()); removed > 0 {
				logger.Info("swept idle sessions",
					zap.Int("removed", removed),
					zap.Int("remaining", svc.Len()))
			}
		}),
		gocron.WithName("session-janitor"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("schedule session sweep: %w", err)
	}

	scheduler.Start()
	return scheduler, nil
}
