package stampz

import (
	"log/slog"
	"time"

	"github.com/Stainlessbrown/StampZ-II-sub001/table"
)

type options struct {
	logger         *Logger
	seed           int64
	maxIterations  int
	restarts       int
	lockRetries    int
	lockRetryDelay time.Duration
	notify         func([]table.Sample)
}

// Option configures Pipeline behavior.
type Option func(*options)

// WithLogger configures structured logging. Pass nil to disable.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the given level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithSeed fixes the k-means random seed. The default (42) makes repeated
// runs over the same data reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithKMeansBounds caps Lloyd iterations per restart and the number of
// re-initializations.
func WithKMeansBounds(maxIterations, restarts int) Option {
	return func(o *options) {
		o.maxIterations = maxIterations
		o.restarts = restarts
	}
}

// WithLockRetry bounds workbook lock acquisition: attempts tries with
// delay between them, then ErrFileBusy.
func WithLockRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		o.lockRetries = attempts
		o.lockRetryDelay = delay
	}
}

// WithNotify registers a callback invoked with the updated sample array
// after every in-memory mutation (clustering or difference calculation).
// The rendering layer uses it to refresh its view.
func WithNotify(fn func([]table.Sample)) Option {
	return func(o *options) {
		o.notify = fn
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
