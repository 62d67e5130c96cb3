package app

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultScrollThreshold is the remaining scroll distance below which
	// the pager loads the next page automatically.
	DefaultScrollThreshold = 280

	// DefaultRequestTimeout bounds every fetch issued by the pager.
	DefaultRequestTimeout = 15 * time.Second
)

type options struct {
	log       *zap.Logger
	threshold int
	timeout   time.Duration
	siteURL   string
}

// Option configures app components.
type Option func(*options)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithThreshold sets the auto-load distance for a FeedPager.
func WithThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}

// WithTimeout sets the per-request timeout for a FeedPager.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithSiteURL sets the site root used to build navigation targets.
func WithSiteURL(u string) Option {
	return func(o *options) { o.siteURL = u }
}

func buildOptions(opts []Option) options {
	o := options{
		log:       zap.NewNop(),
		threshold: DefaultScrollThreshold,
		timeout:   DefaultRequestTimeout,
		siteURL:   "/",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
