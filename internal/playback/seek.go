package playback

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/clock"
)

const (
	seekDebounce = 300 * time.Millisecond
	seekSettle   = 100 * time.Millisecond
)

// SeekCoordinator coalesces rapid seek requests into a single apply-and-settle
// operation. Rapid remote-control presses restart a debounce window; only the
// last target survives. After the native seek is issued, a short settle grace
// period suppresses position echoes so the preview does not snap back, and
// the next native seek waits for it to end.
type SeekCoordinator struct {
	mu     sync.Mutex
	clk    clock.Clock
	logger hclog.Logger

	perform  func(seconds float64)
	preview  func(seconds float64)
	duration func() float64

	debounce  clock.Timer
	settleTim clock.Timer
	pending   float64
	deferred  bool // debounce fired while a seek was settling
	settling  bool
}

// NewSeekCoordinator wires a coordinator. perform issues the native seek,
// preview updates the position indicator without touching real playback, and
// duration bounds the clamp.
func NewSeekCoordinator(clk clock.Clock, logger hclog.Logger, perform, preview func(float64), duration func() float64) *SeekCoordinator {
	return &SeekCoordinator{
		clk:      clk,
		logger:   logger.Named("seek"),
		perform:  perform,
		preview:  preview,
		duration: duration,
	}
}

// RequestSeek records a new target, updates the preview immediately, and
// restarts the debounce window.
func (s *SeekCoordinator) RequestSeek(seconds float64) {
	target := seconds
	if target < 0 {
		target = 0
	}
	if d := s.duration(); d > 0 && target > d {
		target = d
	}

	s.mu.Lock()
	s.pending = target
	s.deferred = false
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = s.clk.AfterFunc(seekDebounce, s.fire)
	s.mu.Unlock()

	s.preview(target)
}

// Settling reports whether position notifications from the adapter should be
// suppressed from re-triggering preview updates.
func (s *SeekCoordinator) Settling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settling
}

// Cancel drops any pending seek and timers. Called on teardown and whenever a
// new stream attempt supersedes the current one.
func (s *SeekCoordinator) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.settleTim != nil {
		s.settleTim.Stop()
		s.settleTim = nil
	}
	s.deferred = false
	s.settling = false
}

func (s *SeekCoordinator) fire() {
	s.mu.Lock()
	s.debounce = nil
	if s.settling {
		// Serialize native seeks: hold the target until the grace period ends.
		s.deferred = true
		s.mu.Unlock()
		return
	}
	target := s.beginSeekLocked()
	s.mu.Unlock()

	s.logger.Debug("performing seek", "target", target)
	s.perform(target)
}

func (s *SeekCoordinator) settleDone() {
	s.mu.Lock()
	s.settling = false
	s.settleTim = nil
	if !s.deferred {
		s.mu.Unlock()
		return
	}
	s.deferred = false
	target := s.beginSeekLocked()
	s.mu.Unlock()

	s.logger.Debug("performing deferred seek", "target", target)
	s.perform(target)
}

// beginSeekLocked marks the settle window and returns the target to apply.
func (s *SeekCoordinator) beginSeekLocked() float64 {
	s.settling = true
	s.settleTim = s.clk.AfterFunc(seekSettle, s.settleDone)
	return s.pending
}
