package repository

import "time"

// Defaults for session stores.
const (
	DefaultTTL       = 120 * time.Minute
	DefaultKeyPrefix = "onb:session:"
	scanBatch        = 100
)

type options struct {
	ttl       time.Duration
	now       func() time.Time
	keyPrefix string
}

func defaultOptions() options {
	return options{
		ttl:       DefaultTTL,
		now:       time.Now,
		keyPrefix: DefaultKeyPrefix,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithTTL sets how long sessions live after Put.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeyPrefix sets the redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}
