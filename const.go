package breath

import "time"

// Period is the default sampling grid period.
const Period = 100 * time.Millisecond

// Output range of every feature.
const (
	outMax = 0xffff
	outMid = 0x7fff
)

// ADC rails. A reading on either rail means the sensor lost contact.
const (
	adcMin = 0
	adcMax = 1023
)

// Baseline calibration is clamped to this window.
const (
	baselineLow  = 400
	baselineHigh = 700
)

// Adaptive high-pass ramp.
const (
	alphaStart  = 0.8
	alphaSteady = 0.995
	alphaRate   = 0.8
	alphaBlend  = 0.2
)

// Position scaling.
const (
	positionOffset = 6
	positionScale  = 0x01ff
	softClipKnee   = 45
)

// velocityScale compresses the derivative before the sigmoid.
const velocityScale = 0.02

// Log-scale clamp bounds, tuned per feature.
const (
	posAmplLow  = 10
	posAmplHigh = 60
	velAmplLow  = 15
	velAmplHigh = 260
	speedLow    = 1
	speedHigh   = 20
)

// Extrema decay weights.
const (
	positionDecay = 0.01
	velocityDecay = 0.05
)

// Gain selects the sensitivity of the position feature.
type Gain int

// Gain levels.
const (
	G1 Gain = iota
	G2
	G3
)

var gainValues = [...]float64{3, 4, 5}

// Factor returns the multiplier applied to the DC-removed signal.
func (g Gain) Factor() float64 {
	if g < G1 || int(g) >= len(gainValues) {
		return gainValues[G1]
	}
	return gainValues[g]
}

// Next returns the following gain level, wrapping after G3.
func (g Gain) Next() Gain {
	return (g + 1) % Gain(len(gainValues))
}

func (g Gain) String() string {
	switch g {
	case G1:
		return "1"
	case G2:
		return "2"
	case G3:
		return "3"
	}
	return "?"
}
