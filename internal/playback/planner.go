package playback

import (
	"strings"

	"github.com/mantonx/couchpilot/internal/deviceprofile"
	"github.com/mantonx/couchpilot/internal/mediaserver"
	"github.com/mantonx/couchpilot/internal/player"
)

// SelectStrategy decides how a media source should be streamed. Direct play
// requires the server flag plus container, video codec, and audio codec all
// being in the device's safe sets. A user override forcing direct play is
// honored only when direct play is actually possible; forcing transcode is
// always honored when the source supports it.
func SelectStrategy(src *mediaserver.MediaSource, profile *deviceprofile.Profile, override Override) Strategy {
	canDirect := canDirectPlay(src, profile)
	canTranscode := src.SupportsTranscoding

	switch override {
	case OverrideDirectPlay:
		if canDirect {
			return StrategyDirectPlay
		}
	case OverrideTranscode:
		if canTranscode {
			return StrategyTranscode
		}
		return StrategyUnsupported
	}

	if canDirect {
		return StrategyDirectPlay
	}
	if canTranscode {
		return StrategyTranscode
	}
	return StrategyUnsupported
}

func canDirectPlay(src *mediaserver.MediaSource, profile *deviceprofile.Profile) bool {
	if !src.SupportsDirectPlay {
		return false
	}
	if !profile.SupportsContainer(src.Container) {
		return false
	}
	if v := src.VideoStream(); v != nil && !profile.SupportsVideoCodec(src.Container, v.Codec) {
		return false
	}
	if a := src.AudioStream(); a != nil && !profile.SupportsAudioCodec(src.Container, a.Codec) {
		return false
	}
	return true
}

// AdapterHints derives rendering-adapter hints from the source. Dolby Vision
// and 10-bit HEVC bias toward the platform-native decoder; they never change
// the direct/transcode decision.
func AdapterHints(src *mediaserver.MediaSource, preferBasic bool) player.Hints {
	hints := player.Hints{PreferBasicPlayer: preferBasic}
	v := src.VideoStream()
	if v == nil {
		return hints
	}
	if strings.EqualFold(v.VideoRangeType, "DOVI") {
		hints.PreferNative = true
	}
	if strings.EqualFold(v.Codec, "hevc") && v.BitDepth >= 10 {
		hints.PreferNative = true
	}
	return hints
}
