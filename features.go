package breath

import (
	"math"
	"time"
)

// Features is the feature set published for one grid point. Every value is
// scaled to 0..0xffff.
type Features struct {
	Time  time.Duration // grid time since the session started
	Index uint64        // grid index

	Position          uint16 // depth of the breath
	PositionAmplitude uint16 // log scaled peak to peak depth
	Velocity          uint16 // sigmoid scaled derivative, 0x7fff at rest
	VelocityAmplitude uint16 // log scaled peak to peak strength
	Direction         Direction
	Speed             uint16 // log scaled inverse cycle duration

	Inhales int // committed inhale crossings
	Exhales int // committed exhale crossings

	Target Target
}

// Target is the guided breathing waveform sampled at the same grid time.
type Target struct {
	Frequency float64 // cycles per minute
	Position  uint16
	Velocity  uint16
	Speed     uint16
}

// OnTarget reports whether the measured speed matches the target speed.
func (f Features) OnTarget() bool {
	return onTarget(f.Speed, f.Target.Speed)
}

// Percent rescales a feature value to 0..100.
func Percent(v uint16) float64 {
	return 100 * float64(v) / outMax
}

// fd4 is the 4th order accurate backward finite difference.
var fd4 = [...]float64{25.0 / 12, -4, 3, -4.0 / 3, 1.0 / 4}

// derivative differentiates the low-passed position at grid index n, in
// counts per second.
func derivative(x1 *iir, n uint64, period time.Duration) float64 {
	dx := 0.0
	for k, c := range fd4 {
		dx += c * x1.out(n, k)
	}
	return dx * float64(time.Second) / float64(period)
}

// scalePosition maps the DC-removed signal to the output range. With soft
// clipping the outer bands are compressed so the output approaches the rails
// without ever being clamped.
func scalePosition(x2 float64, gain Gain, soft bool) uint16 {
	s := gain.Factor() * (x2 - positionOffset)
	if soft {
		s = softClip(s)
	}
	return clampOut(s*positionScale + outMid)
}

// softClip is linear within ±softClipKnee and rational beyond it, tending to
// the value that maps onto the rails.
func softClip(s float64) float64 {
	const limit = float64(outMid) / positionScale
	const room = limit - softClipKnee

	a := math.Abs(s)
	if a <= softClipKnee {
		return s
	}
	d := a - softClipKnee
	return math.Copysign(softClipKnee+d*room/(d+room), s)
}

// scaleVelocity bounds the derivative with the sigmoid u/√(1+u²), centered on
// the middle of the output range.
func scaleVelocity(dx float64) uint16 {
	u := velocityScale * dx
	return clampOut(outMid * (u/math.Sqrt(1+u*u) + 1))
}

// logScale maps v, clamped to [lo, hi], onto the output range on a log scale.
// It increases with v.
func logScale(lo, hi, v float64) uint16 {
	if math.IsNaN(v) || v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return clampOut(outMax * math.Log(v/lo) / math.Log(hi/lo))
}

// speedFromDuration maps a cycle duration in seconds to the speed feature.
// Shorter cycles give higher speeds.
func speedFromDuration(seconds float64) uint16 {
	return outMax - logScale(speedLow, speedHigh, seconds)
}

func clampOut(v float64) uint16 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= outMax:
		return outMax
	}
	return uint16(v)
}
