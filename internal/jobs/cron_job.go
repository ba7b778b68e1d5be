package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// cronJob runs one function on a cron schedule. A run that is still going
// when the next tick arrives makes that tick a no-op, so a slow pass never
// overlaps with the next one.
type cronJob struct {
	name   string
	spec   string
	run    func(ctx context.Context)
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

func newCronJob(name, spec string, run func(ctx context.Context), logger *slog.Logger) *cronJob {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	return &cronJob{
		name:   name,
		spec:   spec,
		run:    run,
		cron:   cron.New(cron.WithSeconds(), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

func (j *cronJob) Name() string { return j.name }

func (j *cronJob) Start() error {
	if _, err := j.cron.AddFunc(j.spec, func() { j.run(j.ctx) }); err != nil {
		return fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
	}

	j.cron.Start()
	j.logger.InfoContext(j.ctx, "job started", "schedule", j.spec)
	return nil
}

// Stop cancels a run in progress and waits for it to return.
func (j *cronJob) Stop() {
	j.cancel()
	<-j.cron.Stop().Done()
	j.logger.Info("job stopped")
}

// cronLogger routes the scheduler's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
