// Package playback is the adaptive playback orchestrator: it decides how a
// media item is streamed (direct play vs server transcode), supervises the
// started stream, recovers from bad decisions with an at-most-once fallback,
// and coordinates seeking, segment skipping, track switching, and progress
// reporting against the live session.
package playback

import (
	"time"

	"github.com/mantonx/couchpilot/internal/mediaserver"
)

// Strategy is how a media source is streamed.
type Strategy string

const (
	StrategyDirectPlay  Strategy = "DirectPlay"
	StrategyTranscode   Strategy = "Transcode"
	StrategyUnsupported Strategy = "Unsupported"
)

// LoadingState is the single authoritative playback state. Transitions are
// driven exclusively by the fallback controller and adapter events.
type LoadingState string

const (
	StateIdle         LoadingState = "Idle"
	StateInitializing LoadingState = "Initializing"
	StateLoading      LoadingState = "Loading"
	StateReady        LoadingState = "Ready"
	StateError        LoadingState = "Error"
)

// TrackNone is the sentinel for "no track selected".
const TrackNone = -1

// TrackSelection picks the active audio and subtitle streams by media-source
// stream index.
type TrackSelection struct {
	Audio    int
	Subtitle int
}

// DefaultTracks selects the server defaults and no subtitle.
func DefaultTracks() TrackSelection {
	return TrackSelection{Audio: TrackNone, Subtitle: TrackNone}
}

// PlaySession correlates one playback attempt with server-side encoding and
// reporting state. Sessions are replaced, never mutated, on every fallback or
// track switch.
type PlaySession struct {
	ID            string
	ItemID        string
	Source        *mediaserver.MediaSource // working copy, owned by the session
	Strategy      Strategy
	Tracks        TrackSelection
	URL           string
	MimeType      string
	StartSeconds  float64
	StartedAt     time.Time
	HasFallenBack bool
}

// Override lets the user force a strategy.
type Override int

const (
	OverrideNone Override = iota
	OverrideDirectPlay
	OverrideTranscode
)

// PlayOptions configures a playback start.
type PlayOptions struct {
	// StartSeconds < 0 resumes from the saved position.
	StartSeconds float64
	Audio        int
	Subtitle     int
	Override     Override
}
