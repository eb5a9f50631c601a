package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Log levels accepted by New.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// logTimeFormat renders timestamps as "14:32:01.45".
const logTimeFormat = "15:04:05.00"

// newLogger creates the CLI logger. Under `serve` stdout carries MCP
// traffic, so w must never be stdout.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// effectiveLevel picks the log level: --verbose wins over log_level.
func effectiveLevel(configured log.Level, verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return configured
}

// progress times one CLI operation and logs it as a structured entry.
// Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	op     string
	start  time.Time
}

func newProgress(l *log.Logger, op string) *progress {
	return &progress{logger: l, op: op, start: time.Now()}
}

// done logs "<op> done" with the elapsed time, rounded to milliseconds.
func (p *progress) done(keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(p.op+" done", keyvals...)
}

// failed logs "<op> failed" with err and the elapsed time.
func (p *progress) failed(err error, keyvals ...any) {
	keyvals = append(keyvals, "err", err, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Error(p.op+" failed", keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger set by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
