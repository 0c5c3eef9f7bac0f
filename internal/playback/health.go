package playback

import "time"

const (
	// Direct play should signal readiness fast; transcode waits on the
	// server's encoder spin-up.
	directPlayLoadTimeout = 15 * time.Second
	transcodeLoadTimeout  = 45 * time.Second

	// One extension is granted when the adapter showed signs of life before
	// the direct-play guard fired.
	loadTimeoutExtension = 10 * time.Second

	healthInterval   = 2 * time.Second
	healthCheckCount = 3
)

func (o *Orchestrator) armGuardLocked(token uint64) {
	timeout := directPlayLoadTimeout
	if o.session.Strategy == StrategyTranscode {
		timeout = transcodeLoadTimeout
	}
	o.guardTimer = o.clk.AfterFunc(timeout, func() { o.onGuardTimeout(token) })
}

func (o *Orchestrator) onGuardTimeout(token uint64) {
	o.mu.Lock()
	if o.destroyed || token != o.attempt || o.state != StateLoading {
		o.mu.Unlock()
		return
	}
	o.guardTimer = nil

	// Activity without readiness earns one grace period; silence does not.
	if o.session.Strategy == StrategyDirectPlay && o.activitySeen && !o.extendedOnce {
		o.extendedOnce = true
		o.logger.Info("load slow but active, extending timeout",
			"session_id", o.session.ID,
			"extension", loadTimeoutExtension)
		o.guardTimer = o.clk.AfterFunc(loadTimeoutExtension, func() { o.onGuardTimeout(token) })
		o.mu.Unlock()
		return
	}

	o.logger.Warn("load timed out",
		"session_id", o.session.ID,
		"strategy", o.session.Strategy,
		"activity_seen", o.activitySeen)
	afters := o.failAttemptLocked(ErrLoadTimeout)
	o.mu.Unlock()
	run(afters)
}

func (o *Orchestrator) armHealthLocked(token uint64) {
	o.healthTimer = o.clk.AfterFunc(healthInterval, func() { o.onHealthCheck(token) })
}

// onHealthCheck probes the adapter shortly after Ready. Direct play can look
// ready and still be silently broken (codec stalls with no error event), so a
// few checks confirm the position actually moves and tracks decoded.
func (o *Orchestrator) onHealthCheck(token uint64) {
	o.mu.Lock()
	if o.destroyed || token != o.attempt || o.state != StateReady ||
		o.session == nil || o.session.Strategy != StrategyDirectPlay || o.adapter == nil {
		o.mu.Unlock()
		return
	}
	o.healthTimer = nil

	st := o.adapter.Stats()
	var reason string
	switch {
	case st.Failed:
		reason = "adapter reports failed state"
	case !st.Paused && st.Position <= o.healthLastPos:
		reason = "position not advancing"
	case st.VideoTracks == 0 || st.AudioTracks == 0:
		// Zero is a confirmed absence; negative counts mean not yet known
		// and are not held against the stream.
		reason = "no decodable tracks"
	}

	if reason != "" {
		o.logger.Warn("health check failed",
			"session_id", o.session.ID,
			"reason", reason,
			"check", o.healthChecks+1)
		afters := o.failAttemptLocked(&HealthCheckError{Reason: reason})
		o.mu.Unlock()
		run(afters)
		return
	}

	o.healthChecks++
	o.healthLastPos = st.Position
	if o.healthChecks < healthCheckCount {
		o.armHealthLocked(token)
	} else {
		o.logger.Debug("direct play confirmed healthy", "session_id", o.session.ID)
	}
	o.mu.Unlock()
}
