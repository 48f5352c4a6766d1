package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProgressTrackerIsMonotonicAndClamped(t *testing.T) {
	var got []float64
	p := newProgressTracker(func(pct float64) { got = append(got, pct) })
	p.setTotal(200)
	p.advance(50)
	p.advance(0)
	p.advance(300)
	p.finish()

	require.Equal(t, []float64{25, 25, 100}, got)
}

func TestProgressTrackerFinishEmitsHundredOnce(t *testing.T) {
	var got []float64
	p := newProgressTracker(func(pct float64) { got = append(got, pct) })
	p.finish()
	require.Equal(t, []float64{100}, got)

	got = nil
	p = newProgressTracker(func(pct float64) { got = append(got, pct) })
	p.setTotal(3)
	for range 3 {
		p.advance(1)
	}
	p.finish()
	require.Len(t, got, 3)
	require.Equal(t, 100.0, got[len(got)-1])
}

func TestProgressTrackerFloorsZeroTotal(t *testing.T) {
	var got []float64
	p := newProgressTracker(func(pct float64) { got = append(got, pct) })
	p.setTotal(0)
	p.advance(0)
	last, ok := p.Last()
	require.True(t, ok)
	require.Equal(t, 0.0, last)
	require.Equal(t, []float64{0}, got)
}

func TestProgressTrackerNilSink(t *testing.T) {
	p := newProgressTracker(nil)
	p.setTotal(10)
	p.advance(5)
	p.finish()
	last, ok := p.Last()
	require.True(t, ok)
	require.Equal(t, 100.0, last)
}
