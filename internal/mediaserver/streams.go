package mediaserver

import (
	"fmt"
	"net/url"
	"strconv"
)

// StreamRequest parameterizes a concrete stream locator. Static requests hit
// the byte-range endpoint; everything else hits the segmented HLS endpoint
// with explicit transcode targets.
type StreamRequest struct {
	ItemID        string
	MediaSourceID string
	SessionID     string

	// Static byte serving (direct play).
	Static    bool
	Container string

	// Transcode targets.
	VideoCodec    string
	AudioCodec    string
	MaxBitrate    int
	SegmentLength int
	StartTicks    int64

	// Explicit stream selection. Negative means server default.
	AudioStreamIndex    int
	SubtitleStreamIndex int
	BurnSubtitle        bool
}

// StreamURL builds the stream locator and its MIME type.
func (c *Client) StreamURL(req StreamRequest) (string, string) {
	q := url.Values{}
	q.Set("MediaSourceId", req.MediaSourceID)
	q.Set("DeviceId", c.deviceID)
	q.Set("api_key", c.token)
	q.Set("PlaySessionId", req.SessionID)

	if req.Static {
		q.Set("Static", "true")
		u := fmt.Sprintf("%s/Videos/%s/stream.%s?%s",
			c.baseURL, url.PathEscape(req.ItemID), req.Container, q.Encode())
		return u, containerMime(req.Container)
	}

	q.Set("VideoCodec", req.VideoCodec)
	q.Set("AudioCodec", req.AudioCodec)
	if req.MaxBitrate > 0 {
		q.Set("VideoBitrate", strconv.Itoa(req.MaxBitrate))
	}
	if req.SegmentLength > 0 {
		q.Set("SegmentLength", strconv.Itoa(req.SegmentLength))
	}
	if req.StartTicks > 0 {
		q.Set("StartTimeTicks", strconv.FormatInt(req.StartTicks, 10))
	}
	if req.AudioStreamIndex >= 0 {
		q.Set("AudioStreamIndex", strconv.Itoa(req.AudioStreamIndex))
	}
	if req.SubtitleStreamIndex >= 0 {
		q.Set("SubtitleStreamIndex", strconv.Itoa(req.SubtitleStreamIndex))
		if req.BurnSubtitle {
			q.Set("SubtitleMethod", "Encode")
		}
	}

	u := fmt.Sprintf("%s/Videos/%s/main.m3u8?%s",
		c.baseURL, url.PathEscape(req.ItemID), q.Encode())
	return u, "application/x-mpegURL"
}

func containerMime(container string) string {
	switch container {
	case "mp4", "m4v":
		return "video/mp4"
	case "mkv":
		return "video/x-matroska"
	case "webm":
		return "video/webm"
	case "avi":
		return "video/x-msvideo"
	case "mov":
		return "video/quicktime"
	default:
		return "video/" + container
	}
}
