package breath

// Direction is the breathing direction derived from the velocity sign.
type Direction uint16

// Directions, valued as they appear on the wire.
const (
	Falling Direction = 0x0000 // exhale
	Unknown Direction = 0x7fff
	Rising  Direction = 0xffff // inhale
)

func (d Direction) String() string {
	switch d {
	case Falling:
		return "exhale"
	case Rising:
		return "inhale"
	}
	return "unknown"
}

// Thresholds tune the cycle segmenter. Up and Down are the derivative levels
// that switch the direction; they differ so that a signal hovering around
// zero velocity cannot toggle it. A crossing is kept when the previous
// opposite crossing is more than MinCycle grid points old, or when the half
// cycle in between went deeper than Depth.
type Thresholds struct {
	Up       float64
	Down     float64
	MinCycle uint64
	Depth    float64
}

// DefaultThresholds are tuned for a strain sensor sampled every 100ms.
var DefaultThresholds = Thresholds{
	Up:       4,
	Down:     -5,
	MinCycle: 5,
	Depth:    8,
}

type extrema struct {
	min, max         float64
	minPrev, maxPrev float64
}

func (e *extrema) add(v float64) {
	e.min = min(v, e.min)
	e.max = max(v, e.max)
}

// span is the peak to peak range over the current and previous half cycles.
func (e *extrema) span() float64 {
	return max(e.max, e.maxPrev) - min(e.min, e.minPrev)
}

func (e *extrema) fade(d decay) {
	e.minPrev = d.below(e.minPrev, e.min)
	e.maxPrev = d.above(e.maxPrev, e.max)
}

// segmenter splits the signal into inhale and exhale half cycles.
type segmenter struct {
	th        Thresholds
	direction Direction
	up, down  crossings

	x  extrema // position
	dx extrema // velocity
}

func newSegmenter(th Thresholds) *segmenter {
	return &segmenter{
		th:        th,
		direction: Unknown,
	}
}

// check receives the position x and its derivative dx at grid index n. It
// returns true when the direction changed.
func (s *segmenter) check(n uint64, x, dx float64) bool {
	changed := false

	s.x.add(x)
	s.dx.add(dx)

	switch {
	case s.direction != Rising && dx > s.th.Up:
		s.direction = Rising
		changed = true

		// Keep it if the exhale was long enough or deep enough, otherwise
		// the exhale that led here was noise.
		if n-s.down.last() > s.th.MinCycle || s.dx.min < -s.th.Depth {
			s.x.minPrev = s.x.min
			s.x.max = s.x.min
			s.dx.minPrev = s.dx.min
			s.dx.max = dx
			s.up.push(n)
		} else {
			s.down.rewind()
		}

	case s.direction != Falling && dx < s.th.Down:
		s.direction = Falling
		changed = true

		if n-s.up.last() > s.th.MinCycle || s.dx.max > s.th.Depth {
			s.x.maxPrev = s.x.max
			s.x.min = s.x.max
			s.dx.maxPrev = s.dx.max
			s.dx.min = dx
			s.down.push(n)
		} else {
			s.up.rewind()
		}
	}

	s.x.fade(decay{weight: positionDecay})
	s.dx.fade(decay{weight: velocityDecay})

	return changed
}

// duration returns the mean of the inhale to inhale and exhale to exhale
// periods, in grid points.
func (s *segmenter) duration(n uint64) float64 {
	return float64(s.up.period(n)+s.down.period(n)) / 2
}

func (s *segmenter) inhales() int {
	return s.up.count
}

func (s *segmenter) exhales() int {
	return s.down.count
}
