package breath

import "time"

// RawSample is a single ADC read.
type RawSample struct {
	Time  time.Duration // since the session started
	Value int           // 0..1023
}

// Sampler turns irregularly timed reads into evenly spaced grid points by
// linear interpolation between consecutive reads.
type Sampler struct {
	period   time.Duration
	baseline int
	index    uint64

	tRead time.Duration
	xRead float64 // relative to the baseline
}

// NewSampler returns a sampler on a grid of the given period, with values made
// relative to baseline.
func NewSampler(period time.Duration, baseline int) *Sampler {
	if period <= 0 {
		period = Period
	}
	return &Sampler{
		period:   period,
		baseline: baseline,
	}
}

// Index returns the index of the last emitted grid point.
func (s *Sampler) Index() uint64 {
	return s.index
}

// Period returns the grid period.
func (s *Sampler) Period() time.Duration {
	return s.period
}

// Rebase changes the baseline subtracted from future reads.
func (s *Sampler) Rebase(baseline int) {
	s.baseline = baseline
}

// Push adds a read and calls emit for every grid point up to its time, in
// order. Reads on the ADC rails reuse the previous value. A read that does
// not move time forward emits nothing.
func (s *Sampler) Push(r RawSample, emit func(n uint64, t time.Duration, x float64)) {
	x := s.xRead
	if r.Value > adcMin && r.Value < adcMax {
		x = float64(r.Value - s.baseline)
	}

	if r.Time <= s.tRead {
		// Keep the latest value but not the time, the interval is degenerate.
		if r.Time == s.tRead {
			s.xRead = x
		}
		return
	}

	span := float64(r.Time - s.tRead)
	for t := time.Duration(s.index+1) * s.period; t <= r.Time; t += s.period {
		s.index++
		emit(s.index, t, s.xRead+(x-s.xRead)*float64(t-s.tRead)/span)
	}

	s.tRead = r.Time
	s.xRead = x
}
