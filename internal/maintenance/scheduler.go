package maintenance

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Schedule runs m on the given cron schedule until ctx is cancelled. Runs
// never overlap: a run still in progress when the next one is due makes
// that one skip. Errors are logged; the schedule keeps going.
func Schedule(ctx context.Context, m *Maintainer, spec string) error {
	if _, err := ParseSchedule(spec); err != nil {
		return err
	}

	logger := cronLogger{m.logger}
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := m.RunOnce(ctx); err != nil {
			m.logger.Error("maintenance failed", "error", err)
		}
	}); err != nil {
		return err
	}

	m.logger.Info("maintenance scheduled", "schedule", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	m.logger.Info("maintenance stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
