package worker

import (
	"time"

	"github.com/okian/resplan/pkg/logger"
)

// Option applies a configuration option to the Saver.
type Option func(*Saver)

// WithName sets the saver name for identification and logging.
func WithName(name string) Option {
	return func(s *Saver) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the saver.
func WithLogger(logger logger.Logger) Option {
	return func(s *Saver) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDebounce sets the quiet period a snapshot must survive before it is written.
func WithDebounce(d time.Duration) Option {
	return func(s *Saver) {
		if d >= 0 {
			s.debounce = d
		}
	}
}

// WithResultHandler sets the callback receiving write outcomes.
func WithResultHandler(h ResultHandler) Option {
	return func(s *Saver) {
		if h != nil {
			s.onResult = h
		}
	}
}
