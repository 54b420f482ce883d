package breath

import log "github.com/inconshreveable/log15"

// An Option configures a sensor.
type Option func(s *Sensor) Option

// WithClock sets the clock driving the sampling loop. By default, the
// monotonic system clock is used.
func WithClock(c Clock) Option {
	return func(s *Sensor) Option {
		old := s.clock
		s.clock = c
		return WithClock(old)
	}
}

// WithLogger sets the logger of the sensor and its processor.
func WithLogger(l log.Logger) Option {
	return func(s *Sensor) Option {
		old := s.log
		s.log = l
		return WithLogger(old)
	}
}

// MaxReadErrors sets how many consecutive failed reads stop the sampling
// loop. Zero never stops it. By default, 50 (5s at the default period).
func MaxReadErrors(n int) Option {
	return func(s *Sensor) Option {
		old := s.maxReadErrors
		s.maxReadErrors = n
		return MaxReadErrors(old)
	}
}

// Processing adds processor options applied when the sensor is created.
func Processing(opts ...ProcessorOption) Option {
	return func(s *Sensor) Option {
		old := s.procOpts
		s.procOpts = append(s.procOpts[:len(old):len(old)], opts...)
		return processing(old)
	}
}

func processing(opts []ProcessorOption) Option {
	return func(s *Sensor) Option {
		old := s.procOpts
		s.procOpts = opts
		return processing(old)
	}
}

// PublishTo adds publishers receiving every feature set.
func PublishTo(p ...Publisher) Option {
	return func(s *Sensor) Option {
		old := s.publishers
		s.publishers = append(s.publishers[:len(old):len(old)], p...)
		return publishers(old)
	}
}

func publishers(p []Publisher) Option {
	return func(s *Sensor) Option {
		old := s.publishers
		s.publishers = p
		return publishers(old)
	}
}
