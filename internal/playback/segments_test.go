package playback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantonx/couchpilot/internal/mediaserver"
)

type segmentRecorder struct {
	mu      sync.Mutex
	enabled bool
	seeks   []float64
	nexts   int
	shown   []SkipAffordance
}

func (r *segmentRecorder) isEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

func (r *segmentRecorder) seekTo(s float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeks = append(r.seeks, s)
}

func (r *segmentRecorder) playNext() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nexts++
}

func (r *segmentRecorder) show(a SkipAffordance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, a)
}

func (r *segmentRecorder) last() SkipAffordance {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.shown) == 0 {
		return SkipAffordance{}
	}
	return r.shown[len(r.shown)-1]
}

func newSegmentFixture() (*SegmentMonitor, *segmentRecorder) {
	rec := &segmentRecorder{enabled: true}
	m := NewSegmentMonitor(testLogger(), rec.isEnabled, rec.seekTo, rec.playNext, rec.show)
	return m, rec
}

func ticks(seconds float64) int64 {
	return mediaserver.SecondsToTicks(seconds)
}

func TestSegmentsShorterThanOneSecondDropped(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentIntro, StartTicks: ticks(10), EndTicks: ticks(10.5)},
		{Type: SegmentRecap, StartTicks: ticks(20), EndTicks: ticks(20.999)},
		{Type: SegmentPreview, StartTicks: ticks(30), EndTicks: ticks(31)},
	})

	m.OnTimeUpdate(10.2)
	assert.Empty(t, rec.shown, "sub-second segment must not surface")

	m.OnTimeUpdate(30.5)
	a := rec.last()
	assert.True(t, a.Visible)
	assert.Equal(t, SegmentPreview, a.Segment)
}

func TestAffordanceLifecycle(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentIntro, StartTicks: ticks(5), EndTicks: ticks(95)},
	})

	m.OnTimeUpdate(2)
	assert.Empty(t, rec.shown)

	m.OnTimeUpdate(10)
	a := rec.last()
	require.True(t, a.Visible)
	assert.Equal(t, "Skip Intro", a.Label)
	assert.Equal(t, 85, a.Countdown)

	// Countdown rounds up toward the segment end.
	m.OnTimeUpdate(94.2)
	assert.Equal(t, 1, rec.last().Countdown)

	m.OnTimeUpdate(96)
	assert.False(t, rec.last().Visible)
}

func TestAffordanceLabels(t *testing.T) {
	tests := []struct {
		kind string
		next bool
		want string
	}{
		{kind: SegmentIntro, want: "Skip Intro"},
		{kind: SegmentPreview, want: "Skip Preview"},
		{kind: SegmentRecap, want: "Skip Recap"},
		{kind: SegmentCredits, want: "Skip Credits"},
		{kind: SegmentCredits, next: true, want: "Play Next Episode"},
		{kind: SegmentOutro, next: true, want: "Play Next Episode"},
		{kind: "Commercial", want: "Skip"},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.kind, func(t *testing.T) {
			m, rec := newSegmentFixture()
			m.SetSegments([]mediaserver.MediaSegment{
				{Type: tt.kind, StartTicks: ticks(100), EndTicks: ticks(160)},
			})
			if tt.next {
				m.SetNextItem(&mediaserver.Item{ID: "next-ep"})
			}
			m.OnTimeUpdate(130)
			assert.Equal(t, tt.want, rec.last().Label)
		})
	}
}

func TestSkipJumpsPastSegment(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentIntro, StartTicks: ticks(5), EndTicks: ticks(95)},
	})

	m.OnTimeUpdate(10)
	m.Skip()

	assert.Equal(t, []float64{95}, rec.seeks)
	assert.False(t, rec.last().Visible)
}

func TestSkipCreditsWithNextPlaysNextEpisode(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentCredits, StartTicks: ticks(2500), EndTicks: ticks(2600)},
	})
	m.SetNextItem(&mediaserver.Item{ID: "next-ep"})

	m.OnTimeUpdate(2550)
	m.Skip()

	assert.Equal(t, 1, rec.nexts)
	assert.Empty(t, rec.seeks, "next-episode shortcut replaces the seek")
}

func TestSkipCreditsWithoutNextSeeks(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentCredits, StartTicks: ticks(2500), EndTicks: ticks(2600)},
	})

	m.OnTimeUpdate(2550)
	m.Skip()

	assert.Equal(t, 0, rec.nexts)
	assert.Equal(t, []float64{2600}, rec.seeks)
}

func TestSkipWithoutSegmentIsNoop(t *testing.T) {
	m, rec := newSegmentFixture()
	m.Skip()
	assert.Empty(t, rec.seeks)
	assert.Empty(t, rec.shown)
}

func TestDisabledPreferenceForcesHide(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentIntro, StartTicks: ticks(5), EndTicks: ticks(95)},
	})

	m.OnTimeUpdate(10)
	require.True(t, rec.last().Visible)

	// Preference flips off mid-segment; the next position signal hides it.
	rec.mu.Lock()
	rec.enabled = false
	rec.mu.Unlock()

	m.OnTimeUpdate(11)
	assert.False(t, rec.last().Visible)
}

func TestResetHidesVisibleAffordance(t *testing.T) {
	m, rec := newSegmentFixture()
	m.SetSegments([]mediaserver.MediaSegment{
		{Type: SegmentIntro, StartTicks: ticks(5), EndTicks: ticks(95)},
	})
	m.OnTimeUpdate(10)
	require.True(t, rec.last().Visible)

	m.Reset()
	assert.False(t, rec.last().Visible)

	// Old segments are gone after the reset.
	m.OnTimeUpdate(10)
	assert.False(t, rec.last().Visible)
}
