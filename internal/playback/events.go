package playback

// SkipAffordance describes the on-screen skip control.
type SkipAffordance struct {
	Visible   bool   `json:"visible"`
	Label     string `json:"label,omitempty"`
	Countdown int    `json:"countdown,omitempty"`
	Segment   string `json:"segment,omitempty"`
}

// Notifier receives state-change notifications for the surrounding UI. All
// callbacks are invoked outside the orchestrator's lock; implementations must
// not call back into the orchestrator synchronously.
type Notifier interface {
	StateChanged(state LoadingState)
	PositionChanged(seconds float64)
	TracksChanged(tracks TrackSelection)
	SkipAffordanceChanged(a SkipAffordance)
	PlaybackError(err error)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) StateChanged(LoadingState) {}
func (NopNotifier) PositionChanged(float64) {}
func (NopNotifier) TracksChanged(TrackSelection) {}
func (NopNotifier) SkipAffordanceChanged(SkipAffordance) {}
func (NopNotifier) PlaybackError(error) {}
