// Package deviceprofile declares what the local rendering adapters can consume
// directly and which re-encoding targets are acceptable. The profile is built
// once per session from static capability tables and sent to the server during
// playback-info negotiation; the planner consults the same tables client-side.
package deviceprofile

import "strings"

// DirectPlayProfile is one allowed container/codec tuple for unmodified playback.
type DirectPlayProfile struct {
	Container   string   `json:"Container"`
	VideoCodecs []string `json:"VideoCodec,omitempty"`
	AudioCodecs []string `json:"AudioCodec,omitempty"`
}

// TranscodingProfile describes an acceptable server-side re-encoding target.
type TranscodingProfile struct {
	Container     string `json:"Container"`
	Protocol      string `json:"Protocol"`
	VideoCodec    string `json:"VideoCodec"`
	AudioCodec    string `json:"AudioCodec"`
	SegmentLength int    `json:"SegmentLength"`
}

// CodecConstraint caps what the decoder will accept for a given codec.
type CodecConstraint struct {
	Codec        string  `json:"Codec"`
	MaxWidth     int     `json:"MaxWidth,omitempty"`
	MaxHeight    int     `json:"MaxHeight,omitempty"`
	MaxFramerate float64 `json:"MaxFramerate,omitempty"`
	MaxBitrate   int     `json:"MaxBitrate,omitempty"`
}

// SubtitleProfile declares how a text subtitle format must be delivered.
// Method "Encode" means burn-in during transcode.
type SubtitleProfile struct {
	Format string `json:"Format"`
	Method string `json:"Method"`
}

// Profile is the negotiated device capability description.
type Profile struct {
	Name                string               `json:"Name"`
	MaxStreamingBitrate int                  `json:"MaxStreamingBitrate"`
	DirectPlay          []DirectPlayProfile  `json:"DirectPlayProfiles"`
	Transcoding         []TranscodingProfile `json:"TranscodingProfiles"`
	CodecConstraints    []CodecConstraint    `json:"CodecProfiles"`
	Subtitles           []SubtitleProfile    `json:"SubtitleProfiles"`
}

// Default bitrate ceiling when the user has not chosen one: 20 Mbps.
const DefaultMaxBitrate = 20_000_000

// Build assembles the profile from the static capability tables.
func Build(maxBitrate int) *Profile {
	if maxBitrate <= 0 {
		maxBitrate = DefaultMaxBitrate
	}

	videoCodecs := []string{"h264", "hevc", "vp9", "av1"}
	audioCodecs := []string{"aac", "ac3", "eac3", "mp3", "opus", "flac", "vorbis"}

	return &Profile{
		Name:                "CouchPilot",
		MaxStreamingBitrate: maxBitrate,
		DirectPlay: []DirectPlayProfile{
			{Container: "mp4", VideoCodecs: videoCodecs, AudioCodecs: audioCodecs},
			{Container: "mkv", VideoCodecs: videoCodecs, AudioCodecs: audioCodecs},
			{Container: "webm", VideoCodecs: []string{"vp8", "vp9", "av1"}, AudioCodecs: []string{"opus", "vorbis"}},
		},
		Transcoding: []TranscodingProfile{
			{Container: "ts", Protocol: "hls", VideoCodec: "h264", AudioCodec: "aac", SegmentLength: 6},
		},
		CodecConstraints: []CodecConstraint{
			{Codec: "h264", MaxWidth: 3840, MaxHeight: 2160, MaxFramerate: 60},
			{Codec: "hevc", MaxWidth: 3840, MaxHeight: 2160, MaxFramerate: 60},
		},
		Subtitles: []SubtitleProfile{
			{Format: "subrip", Method: "Encode"},
			{Format: "ass", Method: "Encode"},
			{Format: "ssa", Method: "Encode"},
			{Format: "pgssub", Method: "Encode"},
			{Format: "dvdsub", Method: "Encode"},
		},
	}
}

// SupportsContainer reports whether any direct-play profile accepts the container.
func (p *Profile) SupportsContainer(container string) bool {
	for _, dp := range p.DirectPlay {
		if strings.EqualFold(dp.Container, container) {
			return true
		}
	}
	return false
}

// SupportsVideoCodec reports whether the container's direct-play profile accepts
// the video codec. An empty codec list means any codec is acceptable.
func (p *Profile) SupportsVideoCodec(container, codec string) bool {
	for _, dp := range p.DirectPlay {
		if !strings.EqualFold(dp.Container, container) {
			continue
		}
		if len(dp.VideoCodecs) == 0 {
			return true
		}
		return containsFold(dp.VideoCodecs, codec)
	}
	return false
}

// SupportsAudioCodec reports whether the container's direct-play profile accepts
// the audio codec.
func (p *Profile) SupportsAudioCodec(container, codec string) bool {
	for _, dp := range p.DirectPlay {
		if !strings.EqualFold(dp.Container, container) {
			continue
		}
		if len(dp.AudioCodecs) == 0 {
			return true
		}
		return containsFold(dp.AudioCodecs, codec)
	}
	return false
}

// TranscodeTarget returns the preferred re-encoding target.
func (p *Profile) TranscodeTarget() TranscodingProfile {
	if len(p.Transcoding) > 0 {
		return p.Transcoding[0]
	}
	return TranscodingProfile{Container: "ts", Protocol: "hls", VideoCodec: "h264", AudioCodec: "aac", SegmentLength: 6}
}

func containsFold(list []string, s string) bool {
	for _, cand := range list {
		if strings.EqualFold(cand, s) {
			return true
		}
	}
	return false
}
