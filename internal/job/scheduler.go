package job

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/iliyamo/online-cinema/internal/logger"
)

// NewScheduler returns a UTC cron scheduler with the token cleanup
// registered under spec (standard five-field syntax or descriptors such as
// "@hourly"). A run still in progress makes the next tick a no-op, and a
// panicking job is logged instead of killing the worker.
func NewScheduler(spec string, cleanup cron.Job) (*cron.Cron, error) {
	l := logger.CronLogger{}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	if _, err := c.AddJob(spec, cleanup); err != nil {
		return nil, fmt.Errorf("schedule token cleanup %q: %w", spec, err)
	}
	return c, nil
}
