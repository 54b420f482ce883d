package breath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmenterDeadBand(t *testing.T) {
	s := newSegmenter(DefaultThresholds)
	for n := uint64(1); n <= 100; n++ {
		dx := 3.9
		if n%2 == 0 {
			dx = -4.9
		}
		assert.False(t, s.check(n, 0, dx))
	}
	assert.Equal(t, Unknown, s.direction)
	assert.Zero(t, s.inhales())
	assert.Zero(t, s.exhales())
}

func TestSegmenterHysteresis(t *testing.T) {
	s := newSegmenter(DefaultThresholds)

	assert.True(t, s.check(10, 0, 5))
	assert.Equal(t, Rising, s.direction)

	// Back inside the dead band: no change.
	for n := uint64(11); n < 20; n++ {
		assert.False(t, s.check(n, 0, -4))
	}
	assert.Equal(t, Rising, s.direction)

	assert.True(t, s.check(20, 0, -6))
	assert.Equal(t, Falling, s.direction)
	assert.False(t, s.check(21, 0, -20))
}

func TestSegmenterRejectsShortCycles(t *testing.T) {
	s := newSegmenter(DefaultThresholds)

	// Too early after the start and too shallow.
	s.check(1, 0, 5)
	assert.Equal(t, Rising, s.direction)
	assert.Zero(t, s.inhales())

	s.check(20, 0, -6)
	assert.Equal(t, 1, s.exhales())

	// Two points after the exhale, which did not go deep: rewinds it.
	s.check(22, 0, 5)
	assert.Equal(t, Rising, s.direction)
	assert.Zero(t, s.inhales())
	assert.Zero(t, s.exhales())

	s.check(40, 0, -6)
	assert.Equal(t, 1, s.exhales())
	s.check(60, 0, 5)
	assert.Equal(t, 1, s.inhales())
	assert.Equal(t, uint64(60), s.up.last())
}

func TestSegmenterKeepsDeepShortCycles(t *testing.T) {
	s := newSegmenter(DefaultThresholds)
	s.check(10, 0, -20)
	assert.Equal(t, 1, s.exhales())

	s.check(12, 0, 20)
	assert.Equal(t, 1, s.inhales())
}

func TestSegmenterAmplitudes(t *testing.T) {
	s := newSegmenter(DefaultThresholds)

	s.check(10, 0, -6)
	s.check(20, -30, -1)
	s.check(30, -30, 6)
	s.check(40, 20, 1)

	// Span over both half cycles.
	assert.InDelta(t, 50, s.x.span(), 1)
	assert.Greater(t, s.dx.span(), 6.0)
}

func TestCrossingsBounded(t *testing.T) {
	var c crossings
	for n := uint64(10); n <= 100; n += 10 {
		c.push(n)
	}
	assert.Len(t, c.buffer, 3)
	assert.Equal(t, 10, c.count)
	assert.Equal(t, uint64(100), c.last())
	assert.Equal(t, uint64(90), c.prev())

	c.rewind()
	assert.Equal(t, 9, c.count)
	assert.Equal(t, uint64(90), c.last())
	assert.Equal(t, uint64(80), c.prev())
}

func TestCrossingsRewindEmpty(t *testing.T) {
	var c crossings
	c.rewind()
	assert.Zero(t, c.count)
	assert.Equal(t, uint64(0), c.last())
}

func TestCrossingsPeriod(t *testing.T) {
	var c crossings
	assert.Equal(t, uint64(30), c.period(30))

	c.push(10)
	c.push(60)
	assert.Equal(t, uint64(50), c.period(80))
	assert.Equal(t, uint64(90), c.period(150))

	// A rewound slot can hold an older index than the one before it.
	c.push(200)
	c.rewind()
	c.rewind()
	assert.NotPanics(t, func() { c.period(5) })
}

func TestDecay(t *testing.T) {
	d := decay{weight: 0.5}
	assert.Equal(t, 5.0, d.above(10, 0))
	assert.Equal(t, 0.0, d.above(0, 10))
	assert.Equal(t, -5.0, d.below(-10, 0))
	assert.Equal(t, 10.0, d.below(10, 0))
}

func TestExtremaFade(t *testing.T) {
	e := extrema{min: -10, max: 10, minPrev: -50, maxPrev: 50}
	for range 1000 {
		e.fade(decay{weight: positionDecay})
	}
	assert.InDelta(t, 20, e.span(), 0.01)
}
