package breath

import (
	"math"
	"math/rand"
	"time"
)

// Sine is a simulated sensor breathing as a sinusoid. It stands in for the
// ADC when no hardware is attached.
type Sine struct {
	Center    float64 // resting reading
	Amplitude float64 // peak deviation, in ADC counts
	Frequency float64 // cycles per minute
	Noise     float64 // standard deviation of added noise, in ADC counts
	Clock     Clock
}

// NewSine returns a simulated sensor centered on the ADC range.
func NewSine(amplitude, frequency float64, clock Clock) *Sine {
	return &Sine{
		Center:    (adcMax + 1) / 2,
		Amplitude: amplitude,
		Frequency: frequency,
		Clock:     clock,
	}
}

// Read returns the reading at the current clock time.
func (s *Sine) Read() (int, error) {
	return s.At(s.Clock.Now()), nil
}

// At returns the reading at time t.
func (s *Sine) At(t time.Duration) int {
	ms := float64(t) / float64(time.Millisecond)
	v := s.Center + s.Amplitude*math.Sin(2*math.Pi/60000*s.Frequency*ms)
	if s.Noise > 0 {
		v += rand.NormFloat64() * s.Noise
	}
	return int(math.Round(min(max(v, adcMin), adcMax)))
}

// Close does nothing.
func (s *Sine) Close() error {
	return nil
}
