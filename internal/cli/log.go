package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gafetes/pkg/observability"
)

// newLogger creates a logger with timestamps formatted as "HH:MM:SS.ms"
// (e.g., "14:32:01.45"), filtering below level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
// It is safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond, e.g.
// "Scaled 84 badges (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// stageLogger reports stage boundaries at debug level.
type stageLogger struct {
	logger *log.Logger
}

func (s stageLogger) OnStageStart(_ context.Context, stage observability.Stage, items int) {
	s.logger.Debug("stage started", "stage", stage, "items", items)
}

func (s stageLogger) OnStageComplete(_ context.Context, stage observability.Stage, produced int, d time.Duration, err error) {
	if err != nil {
		s.logger.Debug("stage failed", "stage", stage, "produced", produced, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	s.logger.Debug("stage finished", "stage", stage, "produced", produced, "duration", d.Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a copy of ctx carrying l.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
