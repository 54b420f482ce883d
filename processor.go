package breath

import (
	"time"

	log "github.com/inconshreveable/log15"
)

// Processor holds the signal processing state of one sensor. It is not safe
// for concurrent use: a single goroutine owns it and feeds it reads in time
// order.
type Processor struct {
	sampler *Sampler
	gain    Gain
	soft    bool
	th      Thresholds

	lowPass  *iir      // x1: smoothed position
	highPass *highPass // x2: DC removed
	posAmpl  *iir      // a2
	velAmpl  *iir      // i2
	duration *iir      // d2

	seg *segmenter
	osc *Oscillator

	features Features
	log      log.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(p *Processor)

// WithPeriod sets the sampling grid period. Default is Period.
func WithPeriod(period time.Duration) ProcessorOption {
	return func(p *Processor) {
		if period > 0 {
			p.sampler.period = period
		}
	}
}

// WithGain sets the initial gain. Default is G1.
func WithGain(g Gain) ProcessorOption {
	return func(p *Processor) {
		p.gain = g
	}
}

// WithSoftClip compresses the outer bands of the position instead of
// clamping it to the rails.
func WithSoftClip(soft bool) ProcessorOption {
	return func(p *Processor) {
		p.soft = soft
	}
}

// WithThresholds replaces the cycle segmenter thresholds.
func WithThresholds(th Thresholds) ProcessorOption {
	return func(p *Processor) {
		p.th = th
	}
}

// WithTargetFrequency sets the initial target frequency in cycles per minute.
func WithTargetFrequency(frequency float64) ProcessorOption {
	return func(p *Processor) {
		if ValidFrequency(frequency) {
			p.osc = NewOscillator(frequency)
		}
	}
}

// WithProcessorLogger sets the logger. By default nothing is logged.
func WithProcessorLogger(l log.Logger) ProcessorOption {
	return func(p *Processor) {
		p.log = l
	}
}

// NewProcessor returns a processor calibrated on baseline, a raw reading taken
// while the sensor is at rest.
func NewProcessor(baseline int, opts ...ProcessorOption) *Processor {
	p := &Processor{
		sampler:  NewSampler(Period, clampBaseline(baseline)),
		th:       DefaultThresholds,
		lowPass:  newButter3(),
		highPass: newHighPass(),
		posAmpl:  newButter2(),
		velAmpl:  newButter2(),
		duration: newButter2(),
		osc:      NewOscillator(DefaultFrequency),
		log:      discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.seg = newSegmenter(p.th)
	p.features.Direction = Unknown
	p.features.Position = outMid
	p.features.Velocity = outMid

	return p
}

func clampBaseline(v int) int {
	return min(max(v, baselineLow), baselineHigh)
}

// Recalibrate moves the baseline and restarts the fast settling of the DC
// removal. Filter history and cycle tracking are kept.
func (p *Processor) Recalibrate(baseline int) {
	p.sampler.Rebase(clampBaseline(baseline))
	p.highPass.recalibrate()
	p.log.Debug("recalibrated", "baseline", p.sampler.baseline, "index", p.sampler.index)
}

// Baseline returns the calibrated baseline.
func (p *Processor) Baseline() int {
	return p.sampler.baseline
}

// Gain returns the current gain.
func (p *Processor) Gain() Gain {
	return p.gain
}

// SetGain changes the gain and recalibrates on baseline, as the signal level
// seen at the new gain differs.
func (p *Processor) SetGain(g Gain, baseline int) {
	p.gain = g
	p.Recalibrate(baseline)
}

// Period returns the sampling grid period.
func (p *Processor) Period() time.Duration {
	return p.sampler.period
}

// Index returns the index of the last processed grid point.
func (p *Processor) Index() uint64 {
	return p.sampler.index
}

// Oscillator returns the target oscillator. It shares the processor's owner.
func (p *Processor) Oscillator() *Oscillator {
	return p.osc
}

// Features returns the features of the last processed grid point.
func (p *Processor) Features() Features {
	return p.features
}

// Push processes one read and returns the features of every grid point it
// completed, oldest first.
func (p *Processor) Push(r RawSample) []Features {
	var out []Features
	p.sampler.Push(r, func(n uint64, t time.Duration, x float64) {
		p.step(n, t, x)
		out = append(out, p.features)
	})
	return out
}

// step runs every stage for grid point n at time t on interpolated value x0.
func (p *Processor) step(n uint64, t time.Duration, x0 float64) {
	f := &p.features
	f.Time = t
	f.Index = n

	// Position
	x1 := p.lowPass.apply(n, x0)
	x2 := p.highPass.apply(n, x1, p.lowPass.out(n, 1))
	f.Position = scalePosition(x2, p.gain, p.soft)

	// Velocity
	dx := derivative(p.lowPass, n, p.sampler.period)
	f.Velocity = scaleVelocity(dx)

	// Direction
	if p.seg.check(n, x1, dx) {
		p.log.Debug("direction", "index", n, "direction", p.seg.direction, "dx", dx)
	}
	f.Direction = p.seg.direction
	f.Inhales = p.seg.inhales()
	f.Exhales = p.seg.exhales()

	// Amplitudes
	f.PositionAmplitude = logScale(posAmplLow, posAmplHigh, p.posAmpl.apply(n, p.seg.x.span()))
	f.VelocityAmplitude = logScale(velAmplLow, velAmplHigh, p.velAmpl.apply(n, p.seg.dx.span()))

	// Speed
	seconds := p.seg.duration(n) * p.sampler.period.Seconds()
	f.Speed = speedFromDuration(p.duration.apply(n, seconds))

	f.Target = p.osc.Target(t)
}

func discard() log.Logger {
	l := log.New()
	l.SetHandler(log.DiscardHandler())
	return l
}
