package query

import "time"

const (
	DefaultRetryBaseDelay = time.Second
	DefaultMaxRetryDelay  = 30 * time.Second
	DefaultGCTime         = 5 * time.Minute
)

// Options tune a single query.
//
// RetryCount 0 uses the coordinator default; a negative value disables
// retries. RetryDelay receives the number of failures so far minus one,
// so the first retry gets 0. Zero GCTime uses the coordinator default.
type Options struct {
	StaleTime       time.Duration
	RefetchInterval time.Duration
	Disabled        bool
	RetryCount      int
	RetryDelay      func(attempt uint) time.Duration
	GCTime          time.Duration
}

// ExponentialDelay returns min(base*2^attempt, maxDelay)
func ExponentialDelay(base, maxDelay time.Duration) func(attempt uint) time.Duration {
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	if maxDelay < base {
		maxDelay = base
	}
	return func(attempt uint) time.Duration {
		if attempt >= 32 {
			return maxDelay
		}
		d := base << attempt
		if d <= 0 || d > maxDelay {
			return maxDelay
		}
		return d
	}
}

// Config holds the coordinator wide defaults
type Config struct {
	RetryCount     int
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
	GCTime         time.Duration
}

func (c Config) withDefaults() Config {
	if c.RetryCount < 0 {
		c.RetryCount = 0
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if c.MaxRetryDelay <= 0 {
		c.MaxRetryDelay = DefaultMaxRetryDelay
	}
	if c.GCTime <= 0 {
		c.GCTime = DefaultGCTime
	}
	return c
}

// resolve fills the zero values of opts from the coordinator config
func (c Config) resolve(opts Options) Options {
	switch {
	case opts.RetryCount == 0:
		opts.RetryCount = c.RetryCount
	case opts.RetryCount < 0:
		opts.RetryCount = 0
	}
	if opts.RetryDelay == nil {
		opts.RetryDelay = ExponentialDelay(c.RetryBaseDelay, c.MaxRetryDelay)
	}
	if opts.GCTime <= 0 {
		opts.GCTime = c.GCTime
	}
	if opts.StaleTime < 0 {
		opts.StaleTime = 0
	}
	return opts
}
