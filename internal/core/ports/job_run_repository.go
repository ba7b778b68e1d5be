package ports

import (
	"context"
	"time"
)

// JobRunRepository remembers when periodic jobs last did their work, so
// that "at most once per period" survives restarts and multiple instances.
type JobRunRepository interface {
	// LastRun returns ok=false when the job never ran.
	LastRun(ctx context.Context, job string) (at time.Time, ok bool, err error)
	MarkRun(ctx context.Context, job string, at time.Time) error
}
