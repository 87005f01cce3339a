package repository

import "time"

const defaultBackupsToKeep = 10

type options struct {
	backupsToKeep int
	now           func() time.Time
}

func defaultOptions() options {
	return options{backupsToKeep: defaultBackupsToKeep, now: time.Now}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithBackupsToKeep sets how many previous versions of each period are kept.
func WithBackupsToKeep(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backupsToKeep = n
		}
	}
}

// WithClock overrides the time source used for backup timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
