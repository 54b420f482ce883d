package breath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	n uint64
	t time.Duration
	x float64
}

func collect(s *Sampler, reads ...RawSample) []point {
	var out []point
	for _, r := range reads {
		s.Push(r, func(n uint64, t time.Duration, x float64) {
			out = append(out, point{n, t, x})
		})
	}
	return out
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func TestSamplerInterpolates(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 500},
		RawSample{Time: ms(250), Value: 600},
		RawSample{Time: ms(300), Value: 500},
	)

	require.Len(t, got, 3)
	assert.Equal(t, point{1, ms(100), 40}, got[0])
	assert.Equal(t, point{2, ms(200), 80}, got[1])
	assert.Equal(t, point{3, ms(300), 0}, got[2])
	assert.Equal(t, uint64(3), s.Index())
}

func TestSamplerOnGridRead(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 510},
		RawSample{Time: ms(100), Value: 520},
	)
	require.Len(t, got, 1)
	assert.Equal(t, 20.0, got[0].x)
}

func TestSamplerMonotonic(t *testing.T) {
	s := NewSampler(Period, 500)
	reads := []RawSample{{Time: 0, Value: 500}}
	for tm := 37; tm < 5000; tm += 37 {
		reads = append(reads, RawSample{Time: ms(tm), Value: 500 + tm%50})
	}
	got := collect(s, reads...)

	require.Len(t, got, 49)
	for i, p := range got {
		assert.Equal(t, uint64(i+1), p.n)
		assert.Equal(t, time.Duration(i+1)*Period, p.t)
	}
}

func TestSamplerMonotonicBetweenReads(t *testing.T) {
	for name, to := range map[string]int{"rising": 900, "falling": 420} {
		t.Run(name, func(t *testing.T) {
			s := NewSampler(Period, 500)
			got := collect(s,
				RawSample{Time: 0, Value: 500},
				RawSample{Time: ms(3370), Value: to},
			)
			require.Len(t, got, 33)

			end := float64(to - 500)
			prev := 0.0
			for _, p := range got {
				if end > 0 {
					assert.Greater(t, p.x, prev)
					assert.LessOrEqual(t, p.x, end)
				} else {
					assert.Less(t, p.x, prev)
					assert.GreaterOrEqual(t, p.x, end)
				}
				prev = p.x
			}
		})
	}
}

func TestSamplerLargeGap(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 500},
		RawSample{Time: time.Second, Value: 600},
	)
	require.Len(t, got, 10)
	assert.InDelta(t, 50, got[4].x, 1e-9)
	assert.InDelta(t, 100, got[9].x, 1e-9)
}

func TestSamplerRailsReusePrevious(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 600},
		RawSample{Time: ms(100), Value: adcMax},
		RawSample{Time: ms(200), Value: adcMin},
	)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].x)
	assert.Equal(t, 100.0, got[1].x)
}

func TestSamplerDuplicateTime(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 500},
		RawSample{Time: ms(100), Value: 600},
		RawSample{Time: ms(100), Value: 700},
		RawSample{Time: ms(200), Value: 700},
	)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[0].x)
	assert.Equal(t, 200.0, got[1].x)
}

func TestSamplerBackwardTime(t *testing.T) {
	s := NewSampler(Period, 500)
	got := collect(s,
		RawSample{Time: 0, Value: 500},
		RawSample{Time: ms(100), Value: 600},
		RawSample{Time: ms(50), Value: 900},
		RawSample{Time: ms(200), Value: 600},
	)
	require.Len(t, got, 2)
	assert.Equal(t, 100.0, got[1].x)
}

func TestSamplerRebase(t *testing.T) {
	s := NewSampler(0, 500)
	assert.Equal(t, Period, s.Period())

	s.Rebase(550)
	got := collect(s,
		RawSample{Time: 0, Value: 550},
		RawSample{Time: ms(100), Value: 560},
	)
	require.Len(t, got, 1)
	assert.Equal(t, 10.0, got[0].x)
}
