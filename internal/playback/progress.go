package playback

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/mantonx/couchpilot/internal/clock"
	"github.com/mantonx/couchpilot/internal/mediaserver"
)

const progressInterval = 10 * time.Second

// reportSink is the reporting slice of the server API.
type reportSink interface {
	ReportStart(ctx context.Context, report mediaserver.PlaybackReport) error
	ReportProgress(ctx context.Context, report mediaserver.PlaybackReport) error
	ReportStopped(ctx context.Context, report mediaserver.PlaybackReport) error
}

// ProgressReporter sends playback position and state to the server: a started
// report on the first Ready of a session, a progress report every ten seconds
// while playing, and a stopped report on end, exit, or item change. Reporting
// failures are logged and never affect playback.
type ProgressReporter struct {
	mu     sync.Mutex
	clk    clock.Clock
	logger hclog.Logger
	sink   reportSink

	// snapshot captures the current report payload; ok is false when no
	// playback is live.
	snapshot func() (mediaserver.PlaybackReport, bool)

	timer  clock.Timer
	active bool
}

// NewProgressReporter wires a reporter.
func NewProgressReporter(clk clock.Clock, logger hclog.Logger, sink reportSink, snapshot func() (mediaserver.PlaybackReport, bool)) *ProgressReporter {
	return &ProgressReporter{
		clk:      clk,
		logger:   logger.Named("progress"),
		sink:     sink,
		snapshot: snapshot,
	}
}

// Start emits the playback-started report and begins the periodic loop.
// Called on the first successful Ready transition of each session.
func (p *ProgressReporter) Start() {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	p.active = true
	p.timer = p.clk.AfterFunc(progressInterval, p.tick)
	p.mu.Unlock()

	if report, ok := p.snapshot(); ok {
		p.send("start", func(ctx context.Context) error { return p.sink.ReportStart(ctx, report) })
	}
}

// Stop emits the playback-stopped report and halts the loop. Safe to call
// when not started.
func (p *ProgressReporter) Stop(reason string) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.active = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if report, ok := p.snapshot(); ok {
		p.logger.Debug("reporting stopped", "reason", reason, "position_ticks", report.PositionTicks)
		p.send("stop", func(ctx context.Context) error { return p.sink.ReportStopped(ctx, report) })
	}
}

// Reset halts the loop without a stopped report. Used when the session is
// superseded in place (fallback, track rebuild) rather than ended: the
// replacement session issues its own started report on Ready.
func (p *ProgressReporter) Reset() {
	p.mu.Lock()
	p.active = false
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()
}

func (p *ProgressReporter) tick() {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	p.timer = p.clk.AfterFunc(progressInterval, p.tick)
	p.mu.Unlock()

	if report, ok := p.snapshot(); ok {
		p.send("progress", func(ctx context.Context) error { return p.sink.ReportProgress(ctx, report) })
	}
}

// send runs the report with a bounded context; failures are logged only.
func (p *ProgressReporter) send(kind string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		p.logger.Warn("playback report failed", "kind", kind, "error", err)
	}
}
