package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/couchpilot/internal/clock"
)

type seekRecorder struct {
	mu       sync.Mutex
	performs []float64
	previews []float64
	duration float64
}

func (r *seekRecorder) perform(s float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.performs = append(r.performs, s)
}

func (r *seekRecorder) preview(s float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previews = append(r.previews, s)
}

func (r *seekRecorder) dur() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

func newSeekFixture(duration float64) (*SeekCoordinator, *clock.Fake, *seekRecorder) {
	clk := clock.NewFake(time.Unix(0, 0))
	rec := &seekRecorder{duration: duration}
	sc := NewSeekCoordinator(clk, testLogger(), rec.perform, rec.preview, rec.dur)
	return sc, clk, rec
}

func TestSeekDebouncesRapidRequests(t *testing.T) {
	sc, clk, rec := newSeekFixture(3600)

	// Five remote presses inside the debounce window collapse to one seek.
	for _, target := range []float64{10, 20, 30, 40, 50} {
		sc.RequestSeek(target)
		clk.Advance(50 * time.Millisecond)
	}
	assert.Empty(t, rec.performs)
	assert.Equal(t, []float64{10, 20, 30, 40, 50}, rec.previews)

	clk.Advance(300 * time.Millisecond)
	assert.Equal(t, []float64{50}, rec.performs)
}

func TestSeekPreviewIsImmediate(t *testing.T) {
	sc, _, rec := newSeekFixture(3600)
	sc.RequestSeek(123)
	assert.Equal(t, []float64{123}, rec.previews)
	assert.Empty(t, rec.performs)
}

func TestSeekClampsToBounds(t *testing.T) {
	sc, clk, rec := newSeekFixture(600)

	sc.RequestSeek(-20)
	clk.Advance(300 * time.Millisecond)
	sc.RequestSeek(9999)
	clk.Advance(100 * time.Millisecond) // settle from the first seek
	clk.Advance(300 * time.Millisecond)

	require.Len(t, rec.performs, 2)
	assert.Equal(t, 0.0, rec.performs[0])
	assert.Equal(t, 600.0, rec.performs[1])
}

func TestSeekUnknownDurationSkipsUpperClamp(t *testing.T) {
	sc, clk, rec := newSeekFixture(0)
	sc.RequestSeek(9999)
	clk.Advance(300 * time.Millisecond)
	assert.Equal(t, []float64{9999}, rec.performs)
}

func TestSeekSettleSuppression(t *testing.T) {
	sc, clk, _ := newSeekFixture(3600)

	sc.RequestSeek(100)
	assert.False(t, sc.Settling())

	clk.Advance(300 * time.Millisecond)
	assert.True(t, sc.Settling(), "settle window opens when the seek is issued")

	clk.Advance(100 * time.Millisecond)
	assert.False(t, sc.Settling(), "settle window closes after the grace period")
}

func TestSeekRequestedWhileSettling(t *testing.T) {
	sc, clk, rec := newSeekFixture(3600)

	sc.RequestSeek(100)
	clk.Advance(300 * time.Millisecond)
	require.Equal(t, []float64{100}, rec.performs)
	require.True(t, sc.Settling())

	// A request made during the settle window debounces independently and
	// applies after both the settle and its own debounce have run out.
	sc.RequestSeek(200)
	clk.Advance(60 * time.Millisecond)
	assert.Equal(t, []float64{100}, rec.performs)

	clk.Advance(300 * time.Millisecond)
	assert.Equal(t, []float64{100, 200}, rec.performs)
	assert.True(t, sc.Settling(), "second seek opens its own settle window")
}

func TestSeekCancelDropsPendingWork(t *testing.T) {
	sc, clk, rec := newSeekFixture(3600)

	sc.RequestSeek(100)
	sc.Cancel()
	clk.Advance(time.Second)

	assert.Empty(t, rec.performs)
	assert.False(t, sc.Settling())
}
