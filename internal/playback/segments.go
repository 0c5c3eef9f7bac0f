package playback

import (
	"math"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/mediaserver"
)

// Segment type names as the server sends them.
const (
	SegmentIntro   = "Intro"
	SegmentOutro   = "Outro"
	SegmentCredits = "Credits"
	SegmentPreview = "Preview"
	SegmentRecap   = "Recap"
)

// segment is a skippable range in seconds.
type segment struct {
	kind  string
	start float64
	end   float64
}

// SegmentMonitor tracks the playback position against the server-supplied
// segment list and drives the skip affordance, including the play-next-episode
// shortcut over credits.
type SegmentMonitor struct {
	mu     sync.Mutex
	logger hclog.Logger

	enabled  func() bool
	seekTo   func(seconds float64)
	playNext func()
	show     func(SkipAffordance)

	segments []segment
	next     *mediaserver.Item
	current  *segment
	visible  bool
}

// NewSegmentMonitor wires a monitor. enabled reads the user preference,
// seekTo forwards to the seek coordinator, playNext starts the next episode,
// and show publishes affordance changes to the UI.
func NewSegmentMonitor(logger hclog.Logger, enabled func() bool, seekTo func(float64), playNext func(), show func(SkipAffordance)) *SegmentMonitor {
	return &SegmentMonitor{
		logger:   logger.Named("segments"),
		enabled:  enabled,
		seekTo:   seekTo,
		playNext: playNext,
		show:     show,
	}
}

// SetSegments installs the segment list for the current item. Segments
// shorter than one second are discarded on receipt, so every retained entry
// spans at least a second.
func (m *SegmentMonitor) SetSegments(raw []mediaserver.MediaSegment) {
	kept := make([]segment, 0, len(raw))
	for _, s := range raw {
		if s.EndTicks-s.StartTicks < mediaserver.TicksPerSecond {
			continue
		}
		kept = append(kept, segment{
			kind:  s.Type,
			start: mediaserver.TicksToSeconds(s.StartTicks),
			end:   mediaserver.TicksToSeconds(s.EndTicks),
		})
	}

	m.mu.Lock()
	m.segments = kept
	m.current = nil
	m.mu.Unlock()
	m.logger.Debug("segments installed", "count", len(kept), "dropped", len(raw)-len(kept))
}

// SetNextItem installs next-episode data for the credits shortcut.
func (m *SegmentMonitor) SetNextItem(item *mediaserver.Item) {
	m.mu.Lock()
	m.next = item
	m.mu.Unlock()
}

// Reset clears per-item state when playback moves to a new item.
func (m *SegmentMonitor) Reset() {
	m.mu.Lock()
	m.segments = nil
	m.next = nil
	m.current = nil
	wasVisible := m.visible
	m.visible = false
	m.mu.Unlock()

	if wasVisible {
		m.show(SkipAffordance{})
	}
}

// OnTimeUpdate drives the affordance from the player position signal.
func (m *SegmentMonitor) OnTimeUpdate(pos float64) {
	if !m.enabled() {
		m.mu.Lock()
		wasVisible := m.visible
		m.visible = false
		m.current = nil
		m.mu.Unlock()
		if wasVisible {
			m.show(SkipAffordance{})
		}
		return
	}

	m.mu.Lock()
	var match *segment
	for i := range m.segments {
		if pos >= m.segments[i].start && pos <= m.segments[i].end {
			match = &m.segments[i]
			break
		}
	}

	if match == nil {
		wasVisible := m.visible
		m.visible = false
		m.current = nil
		m.mu.Unlock()
		if wasVisible {
			m.show(SkipAffordance{})
		}
		return
	}

	countdown := int(math.Ceil(match.end - pos))
	changed := m.current == nil || m.current.kind != match.kind || m.current.start != match.start
	m.current = match
	m.visible = true
	label := m.labelLocked(match.kind)
	m.mu.Unlock()

	if changed {
		m.logger.Debug("entered segment", "type", match.kind, "end", match.end)
	}
	m.show(SkipAffordance{Visible: true, Label: label, Countdown: countdown, Segment: match.kind})
}

// Skip executes the visible affordance. Over outro/credits with next-episode
// data it unconditionally transitions to the next episode (a manual skip
// overrides any autoplay setting); otherwise it jumps past the segment.
func (m *SegmentMonitor) Skip() {
	m.mu.Lock()
	cur := m.current
	next := m.next
	m.current = nil
	m.visible = false
	m.mu.Unlock()

	if cur == nil {
		return
	}
	m.show(SkipAffordance{})

	if isEnding(cur.kind) && next != nil {
		m.logger.Info("skipping to next episode", "next_item", next.ID)
		m.playNext()
		return
	}
	m.logger.Info("skipping segment", "type", cur.kind, "to", cur.end)
	m.seekTo(cur.end)
}

func (m *SegmentMonitor) labelLocked(kind string) string {
	switch kind {
	case SegmentIntro:
		return "Skip Intro"
	case SegmentPreview:
		return "Skip Preview"
	case SegmentRecap:
		return "Skip Recap"
	case SegmentOutro, SegmentCredits:
		if m.next != nil {
			return "Play Next Episode"
		}
		return "Skip Credits"
	default:
		return "Skip"
	}
}

func isEnding(kind string) bool {
	return strings.EqualFold(kind, SegmentOutro) || strings.EqualFold(kind, SegmentCredits)
}
