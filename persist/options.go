package persist

import "github.com/rs/zerolog"

type options struct {
	logger zerolog.Logger
}

// Option configures Extract, Restore and Reload.
type Option func(*options)

// WithLogger sets the logger used for pass summaries and per-entity traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
