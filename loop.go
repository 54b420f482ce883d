package breath

import (
	"context"
	"fmt"
	"time"
)

// Run samples the sensor once per period until ctx is done, processing every
// completed grid point and publishing its features. It returns ctx.Err() on
// cancellation, or an error wrapping ErrSensorLost when the ADC keeps
// failing.
//
// Run owns the processing state: target frequency, gain and calibration
// changes requested while it runs are applied between two reads.
func (s *Sensor) Run(ctx context.Context) error {
	period := s.proc.Period()
	fails := 0

	s.log.Info("sampling started", "period", period)
	defer s.log.Info("sampling stopped", "index", s.proc.Index())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.apply()

		wait := period
		x, err := s.adc.Read()
		if err != nil {
			fails++
			s.readErrors.Add(1)
			s.log.Warn("could not read sensor", "err", err, "failures", fails)
			if s.maxReadErrors > 0 && fails >= s.maxReadErrors {
				return fmt.Errorf("breath: could not read sensor: %w: %w", ErrSensorLost, err)
			}
		} else {
			fails = 0
			for _, f := range s.proc.Push(RawSample{Time: s.clock.Now(), Value: x}) {
				s.publish(f)
			}
			// Sleep until the next grid point.
			next := time.Duration(s.proc.Index()+1) * period
			wait = max(next-s.clock.Now(), 0)
		}

		if err := s.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// apply executes the pending control requests.
func (s *Sensor) apply() {
	select {
	case f := <-s.frequencyCh:
		s.proc.Oscillator().SetFrequency(s.clock.Now(), f)
		s.log.Info("target frequency changed", "frequency", f)
	default:
	}

	select {
	case g := <-s.gainCh:
		if baseline, ok := s.baseline(); ok {
			s.proc.SetGain(g, baseline)
			s.log.Info("gain changed", "gain", g, "baseline", s.proc.Baseline())
		}
	case <-s.recalCh:
		if baseline, ok := s.baseline(); ok {
			s.proc.Recalibrate(baseline)
			s.log.Info("recalibrated", "baseline", s.proc.Baseline())
		}
	default:
	}
}

func (s *Sensor) baseline() (int, bool) {
	x, err := s.adc.Read()
	if err != nil || x <= adcMin || x >= adcMax {
		s.log.Warn("could not read baseline", "err", err, "value", x)
		return 0, false
	}
	return x, true
}

func (s *Sensor) publish(f Features) {
	s.latest.Store(&f)
	for _, p := range s.publishers {
		p.Publish(f)
	}
}
