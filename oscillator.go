package breath

import (
	"math"
	"time"
)

// DefaultFrequency is the initial target breathing frequency, in cycles per
// minute.
const DefaultFrequency = 12

// onTargetTolerance is how close the measured speed must be to the target
// speed to count as on target.
const onTargetTolerance = 0x1000

// ValidFrequency reports whether frequency, in cycles per minute, can drive
// an oscillator: finite and positive.
func ValidFrequency(frequency float64) bool {
	return frequency > 0 && !math.IsInf(frequency, 0)
}

// Oscillator produces the target breathing waveform a user is guided to
// follow. Changing its frequency keeps the waveform continuous: only its
// slope changes at the instant of the change.
type Oscillator struct {
	frequency float64       // cycles per minute
	phase0    float64       // phase at t0, in radians
	t0        time.Duration // time of the last frequency change
}

// NewOscillator returns an oscillator running at frequency cycles per minute
// from time zero.
func NewOscillator(frequency float64) *Oscillator {
	return &Oscillator{
		frequency: frequency,
	}
}

// Frequency returns the target frequency in cycles per minute.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Phase returns the oscillator phase at time t, in radians.
func (o *Oscillator) Phase(t time.Duration) float64 {
	ms := float64(t-o.t0) / float64(time.Millisecond)
	return 2*math.Pi/60000*o.frequency*ms + o.phase0
}

// SetFrequency changes the frequency at time now. The phase origin moves to
// now, evaluated under the previous frequency.
func (o *Oscillator) SetFrequency(now time.Duration, frequency float64) {
	if frequency == o.frequency {
		return
	}
	o.phase0 = o.Phase(now)
	o.t0 = now
	o.frequency = frequency
}

// Position returns the target position at time t.
func (o *Oscillator) Position(t time.Duration) float64 {
	return outMid * (math.Sin(o.Phase(t)) + 1)
}

// Velocity returns the target velocity at time t.
func (o *Oscillator) Velocity(t time.Duration) float64 {
	return outMid * (math.Cos(o.Phase(t)) + 1)
}

// Speed returns the speed feature a user breathing exactly at the target
// frequency would produce.
func (o *Oscillator) Speed() uint16 {
	if o.frequency <= 0 {
		return 0
	}
	return speedFromDuration(60 / o.frequency)
}

// OnTarget reports whether a measured speed matches the target speed.
func (o *Oscillator) OnTarget(speed uint16) bool {
	return onTarget(speed, o.Speed())
}

func onTarget(speed, target uint16) bool {
	d := int(speed) - int(target)
	if d < 0 {
		d = -d
	}
	return d < onTargetTolerance
}

// Target samples the oscillator at time t.
func (o *Oscillator) Target(t time.Duration) Target {
	return Target{
		Frequency: o.frequency,
		Position:  uint16(o.Position(t)),
		Velocity:  uint16(o.Velocity(t)),
		Speed:     o.Speed(),
	}
}
