package playback

import (
	"errors"
	"fmt"
)

// Fatal conditions terminate the session; session teardown always happens
// before they surface.
var (
	// ErrUnsupportedSource means no viable playback path exists for the item.
	ErrUnsupportedSource = errors.New("no supported playback path for media source")
	// ErrLoadTimeout means the guard timer expired without the stream
	// becoming ready.
	ErrLoadTimeout = errors.New("stream load timed out")
	// ErrNoActiveSession is returned by operations that need live playback.
	ErrNoActiveSession = errors.New("no active playback session")
	// ErrDestroyed is returned after the orchestrator has been torn down.
	ErrDestroyed = errors.New("playback orchestrator destroyed")
	// ErrNoNextItem means no next episode is known for the playing item.
	ErrNoNextItem = errors.New("no next episode available")
)

// AdapterError wraps a decode or network failure reported by the rendering
// adapter.
type AdapterError struct {
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("rendering adapter failed: %v", e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// HealthCheckError marks stuck or broken playback detected after start.
type HealthCheckError struct {
	Reason string
}

func (e *HealthCheckError) Error() string {
	return "playback health check failed: " + e.Reason
}

// TrackSwitchError reports a failed rebuild for a new track selection;
// playback continues on the prior selection.
type TrackSwitchError struct {
	Err error
}

func (e *TrackSwitchError) Error() string {
	return fmt.Sprintf("track switch failed: %v", e.Err)
}

func (e *TrackSwitchError) Unwrap() error { return e.Err }
