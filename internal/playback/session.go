package playback

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mantonx/couchpilot/internal/deviceprofile"
	"github.com/mantonx/couchpilot/internal/mediaserver"
)

// ServerAPI is the slice of the media server client the orchestrator uses.
type ServerAPI interface {
	PlaybackInfo(ctx context.Context, itemID string, profile *deviceprofile.Profile) (*mediaserver.PlaybackInfoResponse, error)
	Item(ctx context.Context, itemID string) (*mediaserver.Item, error)
	Segments(ctx context.Context, itemID string) ([]mediaserver.MediaSegment, error)
	NextUp(ctx context.Context, seriesID string) (*mediaserver.Item, error)
	StreamURL(req mediaserver.StreamRequest) (string, string)
	ReportStart(ctx context.Context, report mediaserver.PlaybackReport) error
	ReportProgress(ctx context.Context, report mediaserver.PlaybackReport) error
	ReportStopped(ctx context.Context, report mediaserver.PlaybackReport) error
}

// sessionBuilder mints play sessions and their stream locators.
type sessionBuilder struct {
	server ServerAPI
}

// build mints a fresh session id and constructs the stream URL for the given
// strategy and track selection. The server correlates encoding jobs to the
// session id, so every call gets a new one; callers rebuilding for a track
// change must pass the merged selection so the unchanged track survives.
// The profile is passed per call because the bitrate ceiling can change
// between sessions; callers own its synchronization.
func (b *sessionBuilder) build(profile *deviceprofile.Profile, itemID string, src *mediaserver.MediaSource, strategy Strategy, tracks TrackSelection, startSeconds float64) (*PlaySession, error) {
	if strategy != StrategyDirectPlay && strategy != StrategyTranscode {
		return nil, ErrUnsupportedSource
	}

	sess := &PlaySession{
		ID:           uuid.New().String(),
		ItemID:       itemID,
		Source:       src,
		Strategy:     strategy,
		Tracks:       tracks,
		StartSeconds: startSeconds,
	}

	req := mediaserver.StreamRequest{
		ItemID:              itemID,
		MediaSourceID:       src.ID,
		SessionID:           sess.ID,
		AudioStreamIndex:    TrackNone,
		SubtitleStreamIndex: TrackNone,
	}

	switch strategy {
	case StrategyDirectPlay:
		req.Static = true
		req.Container = src.Container
		if req.Container == "" {
			return nil, fmt.Errorf("media source %s has no container", src.ID)
		}
	case StrategyTranscode:
		target := profile.TranscodeTarget()
		req.VideoCodec = target.VideoCodec
		req.AudioCodec = target.AudioCodec
		req.SegmentLength = target.SegmentLength
		req.MaxBitrate = profile.MaxStreamingBitrate
		req.StartTicks = mediaserver.SecondsToTicks(startSeconds)
		req.AudioStreamIndex = tracks.Audio
		if tracks.Subtitle != TrackNone {
			// The transcoded output is a single baked-in presentation.
			req.SubtitleStreamIndex = tracks.Subtitle
			req.BurnSubtitle = true
		}
	}

	sess.URL, sess.MimeType = b.server.StreamURL(req)
	return sess, nil
}
