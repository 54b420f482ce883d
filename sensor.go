package breath

import (
	"errors"
	"fmt"
	"sync/atomic"

	log "github.com/inconshreveable/log15"
)

var (
	// ErrSensorLost is returned by Run when the ADC kept failing for
	// MaxReadErrors consecutive reads.
	ErrSensorLost = errors.New("sensor lost")
	// ErrShortRecord is returned when decoding a telemetry record shorter
	// than RecordSize.
	ErrShortRecord = errors.New("telemetry record too short")
)

// ADC reads the analog channel the breath sensor is connected to.
type ADC interface {
	// Read returns a reading in 0..1023.
	Read() (int, error)
	Close() error
}

// Publisher receives every feature set computed by a Sensor. Publish is
// called from the sampling loop and must not block.
type Publisher interface {
	Publish(f Features)
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(f Features)

// Publish calls fn(f).
func (fn PublisherFunc) Publish(f Features) {
	fn(f)
}

// Sensor samples a breath sensor and publishes its features.
type Sensor struct {
	adc        ADC
	proc       *Processor
	procOpts   []ProcessorOption
	clock      Clock
	publishers []Publisher
	log        log.Logger

	maxReadErrors int
	readErrors    atomic.Int64

	frequencyCh chan float64
	gainCh      chan Gain
	recalCh     chan struct{}

	latest atomic.Pointer[Features]
}

// New returns a new Sensor reading adc. The first reading calibrates the
// baseline, so the sensor should be at rest.
func New(adc ADC, opts ...Option) (*Sensor, error) {
	s := &Sensor{
		adc:           adc,
		clock:         WallClock(),
		log:           log.New("module", "breath"),
		maxReadErrors: 50,
		frequencyCh:   make(chan float64, 1),
		gainCh:        make(chan Gain, 1),
		recalCh:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	baseline, err := adc.Read()
	if err != nil {
		return nil, fmt.Errorf("breath: could not read baseline: %w", err)
	}

	procOpts := append([]ProcessorOption{WithProcessorLogger(s.log)}, s.procOpts...)
	s.proc = NewProcessor(baseline, procOpts...)

	f := s.proc.Features()
	f.Target = s.proc.Oscillator().Target(0)
	s.latest.Store(&f)

	s.log.Info("sensor calibrated", "baseline", s.proc.Baseline(), "gain", s.proc.Gain(), "period", s.proc.Period())

	return s, nil
}

// Close closes the ADC.
func (s *Sensor) Close() error {
	return s.adc.Close()
}

// Latest returns the last published features. It is safe to call from any
// goroutine.
func (s *Sensor) Latest() Features {
	return *s.latest.Load()
}

// ReadErrors returns how many ADC reads failed since the sensor started.
func (s *Sensor) ReadErrors() int64 {
	return s.readErrors.Load()
}

// SetTargetFrequency asks the sampling loop to change the target frequency,
// in cycles per minute. Only the latest pending request is kept.
func (s *Sensor) SetTargetFrequency(frequency float64) error {
	if !ValidFrequency(frequency) {
		return fmt.Errorf("breath: invalid target frequency %v", frequency)
	}
	offer(s.frequencyCh, frequency)
	return nil
}

// SetGain asks the sampling loop to change the gain, which recalibrates the
// sensor.
func (s *Sensor) SetGain(g Gain) error {
	if g < G1 || g > G3 {
		return fmt.Errorf("breath: invalid gain %d", g)
	}
	offer(s.gainCh, g)
	return nil
}

// Recalibrate asks the sampling loop to read a new baseline.
func (s *Sensor) Recalibrate() {
	offer(s.recalCh, struct{}{})
}

// offer sends v on a channel of capacity 1, replacing a pending value.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
