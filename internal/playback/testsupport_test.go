package playback

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/deviceprofile"
	"github.com/mantonx/couchpilot/internal/mediaserver"
	"github.com/mantonx/couchpilot/internal/player"
)

func testLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

// fakeServer scripts the media server side of the orchestrator.
type fakeServer struct {
	mu sync.Mutex

	info    *mediaserver.PlaybackInfoResponse
	infoErr error
	item    *mediaserver.Item
	itemErr error
	segs    []mediaserver.MediaSegment
	next    *mediaserver.Item

	starts     []mediaserver.PlaybackReport
	progresses []mediaserver.PlaybackReport
	stops      []mediaserver.PlaybackReport

	streamReqs []mediaserver.StreamRequest
}

func (f *fakeServer) PlaybackInfo(ctx context.Context, itemID string, profile *deviceprofile.Profile) (*mediaserver.PlaybackInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeServer) Item(ctx context.Context, itemID string) (*mediaserver.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	if f.item != nil {
		return f.item, nil
	}
	return &mediaserver.Item{ID: itemID, Name: "Test Item", Type: "Movie"}, nil
}

func (f *fakeServer) Segments(ctx context.Context, itemID string) ([]mediaserver.MediaSegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.segs, nil
}

func (f *fakeServer) NextUp(ctx context.Context, seriesID string) (*mediaserver.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next, nil
}

func (f *fakeServer) StreamURL(req mediaserver.StreamRequest) (string, string) {
	f.mu.Lock()
	f.streamReqs = append(f.streamReqs, req)
	f.mu.Unlock()
	if req.Static {
		u := fmt.Sprintf("http://server/Videos/%s/stream.%s?Static=true&PlaySessionId=%s",
			req.ItemID, req.Container, req.SessionID)
		return u, "video/" + req.Container
	}
	u := fmt.Sprintf("http://server/Videos/%s/main.m3u8?PlaySessionId=%s&StartTimeTicks=%d",
		req.ItemID, req.SessionID, req.StartTicks)
	return u, "application/x-mpegURL"
}

func (f *fakeServer) ReportStart(ctx context.Context, r mediaserver.PlaybackReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, r)
	return nil
}

func (f *fakeServer) ReportProgress(ctx context.Context, r mediaserver.PlaybackReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progresses = append(f.progresses, r)
	return nil
}

func (f *fakeServer) ReportStopped(ctx context.Context, r mediaserver.PlaybackReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, r)
	return nil
}

func (f *fakeServer) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func (f *fakeServer) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stops)
}

func (f *fakeServer) lastStreamReq() mediaserver.StreamRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamReqs[len(f.streamReqs)-1]
}

// fakeAdapter is a scripted rendering adapter. Tests drive it by mutating
// stats and emitting events, the way a real adapter's IPC loop would.
type fakeAdapter struct {
	mu         sync.Mutex
	listener   player.Listener
	stats      player.Stats
	loads      []player.LoadRequest
	loadErr    error
	destroyed  bool
	liveSwitch bool
	audioSel   []int
	subSel     []int
	paused     []bool
	volumes    []int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		stats: player.Stats{VideoTracks: -1, AudioTracks: -1, Volume: 100},
	}
}

func (a *fakeAdapter) Load(ctx context.Context, req player.LoadRequest) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loads = append(a.loads, req)
	return a.loadErr
}

func (a *fakeAdapter) Seek(seconds float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Position = seconds
	return nil
}

func (a *fakeAdapter) SetPaused(paused bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = append(a.paused, paused)
	a.stats.Paused = paused
	return nil
}

func (a *fakeAdapter) SetMuted(muted bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Muted = muted
	return nil
}

func (a *fakeAdapter) SetVolume(level int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.volumes = append(a.volumes, level)
	a.stats.Volume = level
	return nil
}

func (a *fakeAdapter) SelectAudioTrack(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.audioSel = append(a.audioSel, index)
	return nil
}

func (a *fakeAdapter) SelectSubtitleTrack(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subSel = append(a.subSel, index)
	return nil
}

func (a *fakeAdapter) SupportsLiveTrackSwitch() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveSwitch
}

func (a *fakeAdapter) Stats() player.Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

func (a *fakeAdapter) SetListener(l player.Listener) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listener = l
}

func (a *fakeAdapter) Destroy() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyed = true
	return nil
}

func (a *fakeAdapter) isDestroyed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.destroyed
}

func (a *fakeAdapter) lastLoad() player.LoadRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loads[len(a.loads)-1]
}

func (a *fakeAdapter) setPosition(seconds float64) {
	a.mu.Lock()
	a.stats.Position = seconds
	a.mu.Unlock()
}

func (a *fakeAdapter) setTracks(video, audio int) {
	a.mu.Lock()
	a.stats.VideoTracks = video
	a.stats.AudioTracks = audio
	a.mu.Unlock()
}

func (a *fakeAdapter) setLiveSwitch(on bool) {
	a.mu.Lock()
	a.liveSwitch = on
	a.mu.Unlock()
}

func (a *fakeAdapter) markFailed() {
	a.mu.Lock()
	a.stats.Failed = true
	a.mu.Unlock()
}

// emit delivers an event the way the real adapter does: from outside any
// Load/Seek/Destroy call, never holding the adapter lock.
func (a *fakeAdapter) emit(ev player.Event) {
	a.mu.Lock()
	l := a.listener
	a.mu.Unlock()
	if l != nil {
		l(ev)
	}
}

// fakeFactory hands out fake adapters and records the hints used.
type fakeFactory struct {
	mu       sync.Mutex
	adapters []*fakeAdapter
	hints    []player.Hints
	err      error

	// newHook, when set before playback starts, runs at the top of New so a
	// test can stall adapter creation.
	newHook func()
}

func (f *fakeFactory) New(hints player.Hints) (player.Adapter, error) {
	if f.newHook != nil {
		f.newHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a := newFakeAdapter()
	f.adapters = append(f.adapters, a)
	f.hints = append(f.hints, hints)
	return a, nil
}

func (f *fakeFactory) adapter(i int) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adapters[i]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adapters)
}

// fakePrefs is an in-memory preference store.
type fakePrefs struct {
	mu        sync.Mutex
	introSkip bool
	bitrate   int
	resume    map[string]int64
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{introSkip: true, resume: make(map[string]int64)}
}

func (p *fakePrefs) IntroSkipEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.introSkip
}

func (p *fakePrefs) PreferredBitrate() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bitrate
}

func (p *fakePrefs) ResumeTicks(itemID string) int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resume[itemID]
}

func (p *fakePrefs) SaveResumeTicks(itemID string, ticks int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resume[itemID] = ticks
	return nil
}

func (p *fakePrefs) ClearResume(itemID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.resume, itemID)
	return nil
}

// recordingNotifier captures every notification.
type recordingNotifier struct {
	mu          sync.Mutex
	states      []LoadingState
	positions   []float64
	tracks      []TrackSelection
	affordances []SkipAffordance
	errors      []error
}

func (n *recordingNotifier) StateChanged(state LoadingState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) PositionChanged(seconds float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.positions = append(n.positions, seconds)
}

func (n *recordingNotifier) TracksChanged(tracks TrackSelection) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tracks = append(n.tracks, tracks)
}

func (n *recordingNotifier) SkipAffordanceChanged(a SkipAffordance) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.affordances = append(n.affordances, a)
}

func (n *recordingNotifier) PlaybackError(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, err)
}

func (n *recordingNotifier) lastAffordance() (SkipAffordance, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.affordances) == 0 {
		return SkipAffordance{}, false
	}
	return n.affordances[len(n.affordances)-1], true
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}
