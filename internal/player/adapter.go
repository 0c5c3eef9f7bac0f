// Package player defines the rendering adapter capability interface the
// playback orchestrator drives, plus the factory that picks a concrete
// adapter variant from explicit hints.
package player

import "context"

// EventType identifies a signal from the rendering adapter.
type EventType string

const (
	// EventLoaded fires when media metadata is available.
	EventLoaded EventType = "loaded"
	// EventCanPlay fires when enough data is buffered to begin.
	EventCanPlay EventType = "canplay"
	// EventPlaying fires when frames are actually being presented.
	EventPlaying EventType = "playing"
	// EventProgress fires as data arrives before playback is ready.
	EventProgress EventType = "progress"
	// EventTimeUpdate carries the current position while playing.
	EventTimeUpdate EventType = "timeupdate"
	// EventBuffering fires when playback stalls waiting for data.
	EventBuffering EventType = "buffering"
	// EventAudioTrackChange fires when the active audio track switches.
	EventAudioTrackChange EventType = "audiotrackchange"
	// EventEnded fires on natural end of stream.
	EventEnded EventType = "ended"
	// EventError carries a decode or network failure.
	EventError EventType = "error"
)

// Event is a single adapter signal.
type Event struct {
	Type     EventType
	Position float64 // seconds; meaningful for timeupdate
	Err      error   // set for EventError
}

// Listener receives adapter events. Adapters must never invoke the listener
// synchronously from inside Load, Seek, or Destroy; delivery happens from the
// adapter's own event pump.
type Listener func(Event)

// LoadRequest describes a stream to load.
type LoadRequest struct {
	URL           string
	MimeType      string
	Title         string
	StartSeconds  float64
	AudioIndex    int // negative for default
	SubtitleIndex int // negative for none
}

// Stats is a point-in-time snapshot of adapter playback state. Track counts
// of -1 mean track enumeration is unavailable.
type Stats struct {
	Position    float64
	Duration    float64
	Paused      bool
	Muted       bool
	Volume      int // 0-100
	VideoTracks int
	AudioTracks int
	Failed      bool // adapter is in an error/no-source state
	Variant     string
}

// Adapter is the narrow rendering capability playback components invoke. The
// orchestrator owns the lifecycle; everything else only calls the playback
// methods.
type Adapter interface {
	Load(ctx context.Context, req LoadRequest) error
	Seek(seconds float64) error
	SetPaused(paused bool) error
	SetMuted(muted bool) error
	// SetVolume takes a 0-100 level.
	SetVolume(level int) error
	SelectAudioTrack(index int) error
	SelectSubtitleTrack(index int) error
	// SupportsLiveTrackSwitch reports whether tracks can change without a
	// stream reload.
	SupportsLiveTrackSwitch() bool
	Stats() Stats
	SetListener(l Listener)
	Destroy() error
}

// Hints bias which adapter variant the factory returns. They are explicit
// capability hints, never matched against human-readable adapter names.
type Hints struct {
	// PreferNative asks for the platform decoder variant; set for
	// Dolby-Vision and 10-bit HEVC content.
	PreferNative bool
	// PreferBasicPlayer asks for the plain software variant.
	PreferBasicPlayer bool
}

// Factory creates adapters for a session.
type Factory interface {
	New(hints Hints) (Adapter, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(hints Hints) (Adapter, error)

func (f FactoryFunc) New(hints Hints) (Adapter, error) {
	return f(hints)
}
