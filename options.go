package resolve

import "go.uber.org/zap"

const (
	defaultChainName   = "chain"
	defaultConcurrency = 10
	defaultUserAgent   = "resolve"
)

// Option configures a Chain.
type Option func(*options)

type options struct {
	name        string
	logger      *zap.Logger
	concurrency int
}

// WithName sets the name the chain reports in errors and logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the logger used to report discarded resolver errors and
// conflicts.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithConcurrency bounds how many resolvers are queried at once. A value of
// 1 queries them one after another.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

func buildOptions(opts []Option) options {
	o := options{
		name:        defaultChainName,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}
