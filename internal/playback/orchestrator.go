package playback

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/clock"
	"github.com/mantonx/couchpilot/internal/deviceprofile"
	"github.com/mantonx/couchpilot/internal/mediaserver"
	"github.com/mantonx/couchpilot/internal/player"
)

const resumeSaveInterval = 30 * time.Second

// PrefStore is the persistence slice playback reads and writes.
type PrefStore interface {
	IntroSkipEnabled() bool
	PreferredBitrate() int
	ResumeTicks(itemID string) int64
	SaveResumeTicks(itemID string, ticks int64) error
	ClearResume(itemID string) error
}

// Deps wires an Orchestrator.
type Deps struct {
	Logger   hclog.Logger
	Clock    clock.Clock
	Server   ServerAPI
	Prefs    PrefStore
	Adapters player.Factory
	Profile  *deviceprofile.Profile
	Notifier Notifier
	// PreferBasicPlayer forces the software adapter variant.
	PreferBasicPlayer bool
}

// Orchestrator owns all stateful playback concerns for one screen: strategy
// selection, session identity, the load/fallback state machine, seeking,
// segment skipping, and progress reporting. It is created once and torn down
// with Destroy; there is no ambient global state.
type Orchestrator struct {
	mu       sync.Mutex
	logger   hclog.Logger
	clk      clock.Clock
	server   ServerAPI
	prefs    PrefStore
	factory  player.Factory
	profile  *deviceprofile.Profile
	notifier Notifier
	builder  sessionBuilder

	preferBasic bool

	state   LoadingState
	lastErr error

	item     *mediaserver.Item
	nextItem *mediaserver.Item
	session  *PlaySession
	adapter  player.Adapter

	// attempt is the current-attempt token. Timer and adapter callbacks
	// carry the token they were armed under and act only while it is still
	// current, so nothing from a superseded attempt can touch a newer one.
	attempt uint64
	playGen uint64

	guardTimer   clock.Timer
	activitySeen bool
	extendedOnce bool

	healthTimer   clock.Timer
	healthChecks  int
	healthLastPos float64

	lastResumeSave time.Time

	seek     *SeekCoordinator
	segments *SegmentMonitor
	progress *ProgressReporter

	destroyed bool
}

// New constructs an orchestrator in the Idle state.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger.Named("playback")
	notifier := deps.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	o := &Orchestrator{
		logger:      logger,
		clk:         deps.Clock,
		server:      deps.Server,
		prefs:       deps.Prefs,
		factory:     deps.Adapters,
		profile:     deps.Profile,
		notifier:    notifier,
		preferBasic: deps.PreferBasicPlayer,
		state:       StateIdle,
		builder:     sessionBuilder{server: deps.Server},
	}

	o.seek = NewSeekCoordinator(deps.Clock, logger, o.performSeek, notifier.PositionChanged, o.durationSeconds)
	o.segments = NewSegmentMonitor(logger, deps.Prefs.IntroSkipEnabled, o.seek.RequestSeek, o.playNextEpisode, notifier.SkipAffordanceChanged)
	o.progress = NewProgressReporter(deps.Clock, logger, deps.Server, o.reportSnapshot)
	return o
}

// Play resolves playback info for an item, selects a strategy, builds a fresh
// session, and starts the stream. A previous playback, if any, is reported
// stopped and torn down first.
func (o *Orchestrator) Play(ctx context.Context, itemID string, opts PlayOptions) error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return ErrDestroyed
	}
	o.playGen++
	gen := o.playGen
	hadSession := o.session != nil
	afters := o.setStateLocked(StateInitializing)
	o.lastErr = nil
	// Private copy: the bitrate ceiling can change concurrently via
	// SetMaxBitrate, and the resolution stage below runs unlocked.
	profile := *o.profile
	o.mu.Unlock()

	if hadSession {
		o.progress.Stop("navigate")
		o.saveResumeNow()
	}
	o.segments.Reset()
	run(afters)

	item, err := o.server.Item(ctx, itemID)
	if err != nil {
		return o.fail(gen, err)
	}

	info, err := o.server.PlaybackInfo(ctx, itemID, &profile)
	if err != nil {
		return o.fail(gen, err)
	}
	if len(info.MediaSources) == 0 {
		return o.fail(gen, ErrUnsupportedSource)
	}

	// The server's source order is its preference order; take the first and
	// work on a private copy so capability flags can be forced on fallback.
	src := info.MediaSources[0]

	strategy := SelectStrategy(&src, &profile, opts.Override)
	if strategy == StrategyUnsupported {
		return o.fail(gen, ErrUnsupportedSource)
	}

	start := opts.StartSeconds
	if start < 0 {
		start = mediaserver.TicksToSeconds(o.prefs.ResumeTicks(itemID))
	}
	tracks := TrackSelection{Audio: opts.Audio, Subtitle: opts.Subtitle}

	sess, err := o.builder.build(&profile, itemID, &src, strategy, tracks, start)
	if err != nil {
		return o.fail(gen, err)
	}

	o.mu.Lock()
	if o.destroyed || gen != o.playGen {
		o.mu.Unlock()
		return ErrNoActiveSession
	}
	o.item = item
	o.nextItem = nil
	afters = o.startAttemptLocked(sess)
	o.mu.Unlock()
	run(afters)

	go o.loadSegments(itemID)
	go o.loadNextEpisode(item)

	o.logger.Info("playback starting",
		"item_id", itemID,
		"session_id", sess.ID,
		"strategy", sess.Strategy,
		"container", src.Container,
		"start_seconds", start)
	return nil
}

// Stop ends playback on explicit user exit: stopped report, resume save, full
// teardown back to Idle.
func (o *Orchestrator) Stop() {
	o.progress.Stop("exit")
	o.saveResumeNow()
	o.segments.Reset()

	o.mu.Lock()
	afters := o.teardownLocked(StateIdle)
	o.mu.Unlock()
	run(afters)
}

// Destroy tears everything down unconditionally: adapter, every outstanding
// timer, reporting. The orchestrator is unusable afterwards.
func (o *Orchestrator) Destroy() {
	o.progress.Stop("shutdown")
	o.saveResumeNow()

	o.mu.Lock()
	o.destroyed = true
	afters := o.teardownLocked(StateIdle)
	o.mu.Unlock()
	run(afters)
}

// RequestSeek forwards to the seek coordinator.
func (o *Orchestrator) RequestSeek(seconds float64) {
	o.seek.RequestSeek(seconds)
}

// Skip executes the visible skip affordance.
func (o *Orchestrator) Skip() {
	o.segments.Skip()
}

// SwitchAudioTrack changes the active audio stream. Under transcode (or an
// adapter without live switching) this rebuilds the session with a fresh id,
// carrying the current subtitle selection forward.
func (o *Orchestrator) SwitchAudioTrack(index int) error {
	return o.switchTrack(index, true)
}

// SwitchSubtitleTrack changes the active subtitle stream; TrackNone disables
// subtitles. Under transcode the subtitle is burned in, which forces a
// session rebuild.
func (o *Orchestrator) SwitchSubtitleTrack(index int) error {
	return o.switchTrack(index, false)
}

func (o *Orchestrator) switchTrack(index int, audio bool) error {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return ErrDestroyed
	}
	sess := o.session
	if sess == nil {
		o.mu.Unlock()
		return ErrNoActiveSession
	}

	tracks := sess.Tracks
	if audio {
		tracks.Audio = index
	} else {
		tracks.Subtitle = index
	}

	// Direct play with a live-switching adapter: no reload needed, the
	// session identity stays.
	if sess.Strategy == StrategyDirectPlay && o.adapter != nil && o.adapter.SupportsLiveTrackSwitch() {
		replaced := *sess
		replaced.Tracks = tracks
		o.session = &replaced
		a := o.adapter
		o.mu.Unlock()

		var err error
		if audio {
			err = a.SelectAudioTrack(index)
		} else {
			err = a.SelectSubtitleTrack(index)
		}
		if err != nil {
			return &TrackSwitchError{Err: err}
		}
		o.notifier.TracksChanged(tracks)
		return nil
	}

	// Rebuild: the server correlates encoding jobs to session identity, so a
	// track change always mints a new id, resuming at the current position.
	pos := sess.StartSeconds
	if o.adapter != nil {
		if st := o.adapter.Stats(); st.Position > 0 {
			pos = st.Position
		}
	}
	newSess, err := o.builder.build(o.profile, sess.ItemID, sess.Source, sess.Strategy, tracks, pos)
	if err != nil {
		// Playback continues on the prior selection.
		o.mu.Unlock()
		return &TrackSwitchError{Err: err}
	}
	newSess.HasFallenBack = sess.HasFallenBack // same lineage keeps the one-shot guard

	afters := []func(){o.progress.Reset}
	afters = append(afters, o.startAttemptLocked(newSess)...)
	afters = append(afters, func() { o.notifier.TracksChanged(tracks) })
	o.mu.Unlock()
	run(afters)
	return nil
}

// PlayNext jumps to the next episode when one is known.
func (o *Orchestrator) PlayNext() error {
	o.mu.Lock()
	destroyed := o.destroyed
	next := o.nextItem
	o.mu.Unlock()
	if destroyed {
		return ErrDestroyed
	}
	if next == nil {
		return ErrNoNextItem
	}
	o.playNextEpisode()
	return nil
}

// SetPaused forwards pause state to the adapter. Paused playback suspends
// the health loop's position checks but not the loop itself.
func (o *Orchestrator) SetPaused(paused bool) error {
	a, err := o.liveAdapter()
	if err != nil {
		return err
	}
	return a.SetPaused(paused)
}

// SetMuted forwards mute state to the adapter.
func (o *Orchestrator) SetMuted(muted bool) error {
	a, err := o.liveAdapter()
	if err != nil {
		return err
	}
	return a.SetMuted(muted)
}

// SetVolume forwards a 0-100 volume level to the adapter.
func (o *Orchestrator) SetVolume(level int) error {
	a, err := o.liveAdapter()
	if err != nil {
		return err
	}
	return a.SetVolume(level)
}

func (o *Orchestrator) liveAdapter() (player.Adapter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.destroyed {
		return nil, ErrDestroyed
	}
	if o.adapter == nil {
		return nil, ErrNoActiveSession
	}
	return o.adapter, nil
}

// State returns the authoritative loading state.
func (o *Orchestrator) State() LoadingState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the terminal error, if the state is Error.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// SessionSnapshot is an introspection copy of the live session.
type SessionSnapshot struct {
	ID            string         `json:"session_id"`
	ItemID        string         `json:"item_id"`
	ItemName      string         `json:"item_name,omitempty"`
	Strategy      Strategy       `json:"strategy"`
	Tracks        TrackSelection `json:"tracks"`
	HasFallenBack bool           `json:"has_fallen_back"`
	StartedAt     time.Time      `json:"started_at,omitempty"`
}

// Session returns a copy of the live session, if any.
func (o *Orchestrator) Session() (SessionSnapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return SessionSnapshot{}, false
	}
	name := ""
	if o.item != nil {
		name = o.item.Name
	}
	return SessionSnapshot{
		ID:            o.session.ID,
		ItemID:        o.session.ItemID,
		ItemName:      name,
		Strategy:      o.session.Strategy,
		Tracks:        o.session.Tracks,
		HasFallenBack: o.session.HasFallenBack,
		StartedAt:     o.session.StartedAt,
	}, true
}

// PlaybackStats passes through adapter diagnostics.
func (o *Orchestrator) PlaybackStats() (player.Stats, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.adapter == nil {
		return player.Stats{}, false
	}
	return o.adapter.Stats(), true
}

// SetMaxBitrate updates the streaming bitrate ceiling for future sessions.
func (o *Orchestrator) SetMaxBitrate(bps int) {
	if bps <= 0 {
		return
	}
	o.mu.Lock()
	o.profile.MaxStreamingBitrate = bps
	o.mu.Unlock()
}

// --- attempt lifecycle -----------------------------------------------------

// startAttemptLocked supersedes the current attempt and wires a new one. The
// returned funcs must run after the lock is released: they destroy the old
// adapter, publish state, and issue the load.
func (o *Orchestrator) startAttemptLocked(sess *PlaySession) []func() {
	o.attempt++
	token := o.attempt

	var afters []func()
	o.cancelTimersLocked()
	o.seek.Cancel()

	// Tear down the previous adapter binding before wiring the new one so no
	// duplicate event delivery is possible.
	if old := o.adapter; old != nil {
		o.adapter = nil
		afters = append(afters, func() {
			old.SetListener(nil)
			if err := old.Destroy(); err != nil {
				o.logger.Warn("adapter teardown failed", "error", err)
			}
		})
	}

	o.session = sess
	o.activitySeen = false
	o.extendedOnce = false
	o.healthChecks = 0
	afters = append(afters, o.setStateLocked(StateInitializing)...)

	req := player.LoadRequest{
		URL:           sess.URL,
		MimeType:      sess.MimeType,
		AudioIndex:    TrackNone,
		SubtitleIndex: TrackNone,
	}
	if o.item != nil {
		req.Title = o.item.Name
	}
	if sess.Strategy == StrategyDirectPlay {
		// Transcode sessions start at StartTimeTicks server-side; direct play
		// seeks locally and selects tracks in the adapter.
		req.StartSeconds = sess.StartSeconds
		req.AudioIndex = sess.Tracks.Audio
		req.SubtitleIndex = sess.Tracks.Subtitle
	}

	// Adapter creation spawns a player process and waits for its socket, so
	// it must not run under the lock. The token invalidates the result if a
	// newer attempt started in the meantime.
	hints := AdapterHints(sess.Source, o.preferBasic)
	afters = append(afters, func() {
		adapter, err := o.factory.New(hints)
		if err != nil {
			o.onAdapterCreateFailed(token, err)
			return
		}

		o.mu.Lock()
		if o.destroyed || token != o.attempt {
			o.mu.Unlock()
			if err := adapter.Destroy(); err != nil {
				o.logger.Warn("adapter teardown failed", "error", err)
			}
			return
		}
		o.adapter = adapter
		inner := o.setStateLocked(StateLoading)
		o.armGuardLocked(token)
		o.mu.Unlock()
		run(inner)

		adapter.SetListener(func(ev player.Event) { o.onAdapterEvent(token, ev) })
		if err := adapter.Load(context.Background(), req); err != nil {
			o.onLoadRejected(token, err)
		}
	})
	return afters
}

func (o *Orchestrator) onAdapterCreateFailed(token uint64, err error) {
	o.mu.Lock()
	if o.destroyed || token != o.attempt {
		o.mu.Unlock()
		return
	}
	afters := o.fatalLocked(&AdapterError{Err: err})
	o.mu.Unlock()
	run(afters)
}

func (o *Orchestrator) onLoadRejected(token uint64, err error) {
	o.mu.Lock()
	if o.destroyed || token != o.attempt {
		o.mu.Unlock()
		return
	}
	o.logger.Warn("adapter rejected load", "error", err)
	afters := o.failAttemptLocked(&AdapterError{Err: err})
	o.mu.Unlock()
	run(afters)
}

// failAttemptLocked routes a failure: automatic fallback when this lineage
// still has its one shot and the source can transcode, otherwise terminal.
func (o *Orchestrator) failAttemptLocked(cause error) []func() {
	sess := o.session
	if sess != nil &&
		sess.Strategy == StrategyDirectPlay &&
		!sess.HasFallenBack &&
		sess.Source.SupportsTranscoding {
		return o.fallbackLocked(cause)
	}
	return o.fatalLocked(cause)
}

// fallbackLocked performs the at-most-once automatic recovery: force
// transcode on a working copy of the source, rebuild the session, and reload
// at the position playback had reached.
func (o *Orchestrator) fallbackLocked(cause error) []func() {
	sess := o.session

	pos := sess.StartSeconds
	if o.adapter != nil {
		if st := o.adapter.Stats(); st.Position > 0 {
			pos = st.Position
		}
	}

	src := *sess.Source
	src.SupportsDirectPlay = false

	newSess, err := o.builder.build(o.profile, sess.ItemID, &src, StrategyTranscode, sess.Tracks, pos)
	if err != nil {
		return o.fatalLocked(cause)
	}
	newSess.HasFallenBack = true

	o.logger.Warn("falling back to transcoding",
		"cause", cause,
		"old_session", sess.ID,
		"new_session", newSess.ID,
		"resume_seconds", pos)

	afters := []func(){o.progress.Reset}
	return append(afters, o.startAttemptLocked(newSess)...)
}

// fatalLocked terminates the session: full teardown first, then the error
// surfaces.
func (o *Orchestrator) fatalLocked(err error) []func() {
	o.lastErr = err
	o.cancelTimersLocked()
	o.seek.Cancel()

	var afters []func()
	if a := o.adapter; a != nil {
		o.adapter = nil
		afters = append(afters, func() {
			a.SetListener(nil)
			_ = a.Destroy()
		})
	}
	afters = append(afters, func() { o.progress.Reset() })
	afters = append(afters, o.setStateLocked(StateError)...)
	afters = append(afters, func() { o.notifier.PlaybackError(err) })
	o.logger.Error("playback failed", "error", err)
	return afters
}

// fail is the out-of-lock flavor used by Play's resolution stage.
func (o *Orchestrator) fail(gen uint64, err error) error {
	o.mu.Lock()
	if o.destroyed || gen != o.playGen {
		o.mu.Unlock()
		return err
	}
	afters := o.fatalLocked(err)
	o.mu.Unlock()
	run(afters)
	return err
}

// teardownLocked supersedes every token, cancels all timers, and destroys the
// adapter.
func (o *Orchestrator) teardownLocked(next LoadingState) []func() {
	o.attempt++
	o.playGen++
	o.cancelTimersLocked()
	o.seek.Cancel()

	var afters []func()
	if a := o.adapter; a != nil {
		o.adapter = nil
		afters = append(afters, func() {
			a.SetListener(nil)
			_ = a.Destroy()
		})
	}
	o.session = nil
	o.item = nil
	o.nextItem = nil
	afters = append(afters, o.setStateLocked(next)...)
	return afters
}

func (o *Orchestrator) cancelTimersLocked() {
	if o.guardTimer != nil {
		o.guardTimer.Stop()
		o.guardTimer = nil
	}
	if o.healthTimer != nil {
		o.healthTimer.Stop()
		o.healthTimer = nil
	}
}

func (o *Orchestrator) setStateLocked(state LoadingState) []func() {
	if o.state == state {
		return nil
	}
	o.state = state
	return []func(){func() { o.notifier.StateChanged(state) }}
}

// --- adapter events --------------------------------------------------------

func (o *Orchestrator) onAdapterEvent(token uint64, ev player.Event) {
	o.mu.Lock()
	if o.destroyed || token != o.attempt {
		o.mu.Unlock()
		return
	}

	var afters []func()
	switch ev.Type {
	case player.EventProgress, player.EventLoaded:
		// Pre-ready activity feeds the smart timeout.
		o.activitySeen = true

	case player.EventCanPlay, player.EventPlaying:
		o.activitySeen = true
		if o.state == StateLoading {
			afters = o.readyLocked(token)
		}

	case player.EventTimeUpdate:
		if o.state == StateReady {
			afters = o.timeUpdateLocked(ev.Position)
		}

	case player.EventBuffering:
		o.logger.Debug("playback buffering", "position", ev.Position)

	case player.EventAudioTrackChange:
		if o.session != nil {
			tracks := o.session.Tracks
			afters = append(afters, func() { o.notifier.TracksChanged(tracks) })
		}

	case player.EventEnded:
		afters = o.endedLocked(token)

	case player.EventError:
		o.logger.Warn("adapter error", "error", ev.Err)
		afters = o.failAttemptLocked(&AdapterError{Err: ev.Err})
	}
	o.mu.Unlock()
	run(afters)
}

func (o *Orchestrator) readyLocked(token uint64) []func() {
	o.cancelTimersLocked()
	o.session.StartedAt = o.clk.Now()

	afters := o.setStateLocked(StateReady)
	afters = append(afters, func() { o.progress.Start() })

	// The health loop replaces the smart timeout across the boundary, and
	// only ever supervises direct play.
	if o.session.Strategy == StrategyDirectPlay {
		o.healthChecks = 0
		if o.adapter != nil {
			o.healthLastPos = o.adapter.Stats().Position
		}
		o.armHealthLocked(token)
	}
	return afters
}

func (o *Orchestrator) timeUpdateLocked(pos float64) []func() {
	var afters []func()
	afters = append(afters, func() {
		if !o.seek.Settling() {
			o.notifier.PositionChanged(pos)
		}
		o.segments.OnTimeUpdate(pos)
	})

	now := o.clk.Now()
	if o.session != nil && now.Sub(o.lastResumeSave) >= resumeSaveInterval {
		o.lastResumeSave = now
		itemID := o.session.ItemID
		ticks := mediaserver.SecondsToTicks(pos)
		afters = append(afters, func() {
			if err := o.prefs.SaveResumeTicks(itemID, ticks); err != nil {
				o.logger.Warn("resume save failed", "item_id", itemID, "error", err)
			}
		})
	}
	return afters
}

func (o *Orchestrator) endedLocked(token uint64) []func() {
	itemID := ""
	if o.session != nil {
		itemID = o.session.ItemID
	}
	return []func(){func() {
		o.progress.Stop("ended")
		if itemID != "" {
			if err := o.prefs.ClearResume(itemID); err != nil {
				o.logger.Warn("resume clear failed", "item_id", itemID, "error", err)
			}
		}
		o.segments.Reset()

		o.mu.Lock()
		if o.destroyed || token != o.attempt {
			o.mu.Unlock()
			return
		}
		afters := o.teardownLocked(StateIdle)
		o.mu.Unlock()
		run(afters)
	}}
}

// --- helpers ---------------------------------------------------------------

func (o *Orchestrator) performSeek(target float64) {
	o.mu.Lock()
	a := o.adapter
	o.mu.Unlock()
	if a == nil {
		return
	}
	if err := a.Seek(target); err != nil {
		o.logger.Warn("seek failed", "target", target, "error", err)
	}
}

func (o *Orchestrator) durationSeconds() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.adapter != nil {
		if d := o.adapter.Stats().Duration; d > 0 {
			return d
		}
	}
	if o.session != nil && o.session.Source.RunTimeTicks > 0 {
		return mediaserver.TicksToSeconds(o.session.Source.RunTimeTicks)
	}
	return 0
}

func (o *Orchestrator) reportSnapshot() (mediaserver.PlaybackReport, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil || o.adapter == nil {
		return mediaserver.PlaybackReport{}, false
	}
	st := o.adapter.Stats()
	return mediaserver.PlaybackReport{
		ItemID:        o.session.ItemID,
		SessionID:     o.session.ID,
		MediaSourceID: o.session.Source.ID,
		PositionTicks: mediaserver.SecondsToTicks(st.Position),
		IsPaused:      st.Paused,
		IsMuted:       st.Muted,
		VolumeLevel:   st.Volume,
		PlayMethod:    string(o.session.Strategy),
	}, true
}

func (o *Orchestrator) saveResumeNow() {
	o.mu.Lock()
	var itemID string
	var ticks int64
	if o.session != nil && o.adapter != nil {
		itemID = o.session.ItemID
		ticks = mediaserver.SecondsToTicks(o.adapter.Stats().Position)
	}
	o.mu.Unlock()
	if itemID == "" || ticks <= 0 {
		return
	}
	if err := o.prefs.SaveResumeTicks(itemID, ticks); err != nil {
		o.logger.Warn("resume save failed", "item_id", itemID, "error", err)
	}
}

func (o *Orchestrator) loadSegments(itemID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	segs, err := o.server.Segments(ctx, itemID)
	if err != nil {
		o.logger.Warn("segment fetch failed", "item_id", itemID, "error", err)
		return
	}

	o.mu.Lock()
	current := o.session != nil && o.session.ItemID == itemID
	o.mu.Unlock()
	if current {
		o.segments.SetSegments(segs)
	}
}

func (o *Orchestrator) loadNextEpisode(item *mediaserver.Item) {
	if item.Type != "Episode" || item.SeriesID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	next, err := o.server.NextUp(ctx, item.SeriesID)
	if err != nil {
		o.logger.Warn("next episode fetch failed", "series_id", item.SeriesID, "error", err)
		return
	}
	if next == nil || next.ID == item.ID {
		return
	}

	o.mu.Lock()
	if o.item != nil && o.item.ID == item.ID {
		o.nextItem = next
	}
	o.mu.Unlock()
	o.segments.SetNextItem(next)
}

// playNextEpisode is the segment monitor's shortcut target.
func (o *Orchestrator) playNextEpisode() {
	o.mu.Lock()
	next := o.nextItem
	o.mu.Unlock()
	if next == nil {
		return
	}

	o.progress.Stop("next")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		opts := PlayOptions{StartSeconds: 0, Audio: TrackNone, Subtitle: TrackNone}
		if err := o.Play(ctx, next.ID, opts); err != nil {
			o.logger.Error("next episode start failed", "item_id", next.ID, "error", err)
		}
	}()
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
