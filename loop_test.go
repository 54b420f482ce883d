package breath

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stopAt cancels the run once the grid index n was published.
func stopAt(n uint64, cancel context.CancelFunc, got *[]Features) Publisher {
	return PublisherFunc(func(f Features) {
		*got = append(*got, f)
		if f.Index >= n {
			cancel()
		}
	})
}

func TestRunSimulated(t *testing.T) {
	clock := &SimClock{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Features
	s, err := New(NewSine(30, 12, clock),
		WithClock(clock),
		WithLogger(discard()),
		Processing(WithSoftClip(true)),
		PublishTo(stopAt(600, cancel, &got)),
	)
	require.NoError(t, err)
	assert.Equal(t, Unknown, s.Latest().Direction)

	err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, got, 600)
	latest := s.Latest()
	assert.Equal(t, uint64(600), latest.Index)
	assert.Equal(t, time.Minute, latest.Time)
	assert.InDelta(t, 12, latest.Inhales, 1)
	assert.Zero(t, s.ReadErrors())
	require.NoError(t, s.Close())
}

// flakyADC returns its values in order, then fails.
type flakyADC struct {
	values []int
	err    error
	reads  int
}

func (a *flakyADC) Read() (int, error) {
	a.reads++
	if len(a.values) == 0 {
		return 0, a.err
	}
	v := a.values[0]
	a.values = a.values[1:]
	return v, nil
}

func (a *flakyADC) Close() error { return nil }

func TestRunSensorLost(t *testing.T) {
	lost := errors.New("i2c: no ack")
	adc := &flakyADC{values: []int{512, 512, 515}, err: lost}
	clock := &SimClock{}

	s, err := New(adc, WithClock(clock), WithLogger(discard()), MaxReadErrors(3))
	require.NoError(t, err)

	err = s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSensorLost)
	assert.ErrorIs(t, err, lost)
	assert.Equal(t, int64(3), s.ReadErrors())
	assert.Equal(t, 6, adc.reads)
}

func TestNewBaselineError(t *testing.T) {
	_, err := New(&flakyADC{err: errors.New("boom")}, WithLogger(discard()))
	assert.Error(t, err)
}

func TestRunControl(t *testing.T) {
	clock := &SimClock{}
	adc := NewSine(30, 12, clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Features
	s, err := New(adc, WithClock(clock), WithLogger(discard()), PublishTo(stopAt(10, cancel, &got)))
	require.NoError(t, err)

	assert.Error(t, s.SetTargetFrequency(0))
	assert.Error(t, s.SetTargetFrequency(math.NaN()))
	assert.Error(t, s.SetTargetFrequency(math.Inf(1)))
	assert.Error(t, s.SetGain(Gain(5)))

	require.NoError(t, s.SetTargetFrequency(8))
	require.NoError(t, s.SetTargetFrequency(6))
	require.NoError(t, s.SetGain(G3))

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, 6.0, s.Latest().Target.Frequency)
	assert.Equal(t, G3, s.proc.Gain())
	assert.Equal(t, 512, s.proc.Baseline())
}

func TestRunRecalibrate(t *testing.T) {
	clock := &SimClock{}
	adc := NewSine(30, 12, clock)
	adc.Center = 600
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []Features
	s, err := New(adc, WithClock(clock), WithLogger(discard()), PublishTo(stopAt(1, cancel, &got)))
	require.NoError(t, err)
	require.Equal(t, 600, s.proc.Baseline())

	adc.Center = 550
	s.Recalibrate()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Equal(t, 550, s.proc.Baseline())
}

func TestOfferKeepsLatest(t *testing.T) {
	ch := make(chan int, 1)
	offer(ch, 1)
	offer(ch, 2)
	assert.Equal(t, 2, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected %d", v)
	default:
	}
}

func TestOptionsRestore(t *testing.T) {
	s := &Sensor{maxReadErrors: 50}

	prev := MaxReadErrors(7)(s)
	assert.Equal(t, 7, s.maxReadErrors)
	prev(s)
	assert.Equal(t, 50, s.maxReadErrors)

	p := PublisherFunc(func(Features) {})
	prev = PublishTo(p, p)(s)
	assert.Len(t, s.publishers, 2)
	prev(s)
	assert.Empty(t, s.publishers)
}
