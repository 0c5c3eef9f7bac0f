package mediaserver

// MediaStream is one video, audio, or subtitle stream within a media source.
type MediaStream struct {
	Index          int     `json:"Index"`
	Type           string  `json:"Type"` // Video, Audio, Subtitle
	Codec          string  `json:"Codec"`
	Language       string  `json:"Language,omitempty"`
	DisplayTitle   string  `json:"DisplayTitle,omitempty"`
	IsDefault      bool    `json:"IsDefault"`
	IsForced       bool    `json:"IsForced"`
	IsExternal     bool    `json:"IsExternal"`
	Width          int     `json:"Width,omitempty"`
	Height         int     `json:"Height,omitempty"`
	BitRate        int     `json:"BitRate,omitempty"`
	BitDepth       int     `json:"BitDepth,omitempty"`
	VideoRangeType string  `json:"VideoRangeType,omitempty"` // SDR, HDR10, DOVI, ...
	Channels       int     `json:"Channels,omitempty"`
	SampleRate     int     `json:"SampleRate,omitempty"`
	FrameRate      float64 `json:"RealFrameRate,omitempty"`
	DeliveryMethod string  `json:"DeliveryMethod,omitempty"`
}

// MediaSource is one playable variant of a catalog item, with server-declared
// capability flags. Immutable once fetched; a new negotiation is required to
// obtain alternatives.
type MediaSource struct {
	ID                         string        `json:"Id"`
	Name                       string        `json:"Name,omitempty"`
	Container                  string        `json:"Container"`
	Protocol                   string        `json:"Protocol,omitempty"`
	Size                       int64         `json:"Size,omitempty"`
	Bitrate                    int           `json:"Bitrate,omitempty"`
	RunTimeTicks               int64         `json:"RunTimeTicks,omitempty"`
	SupportsDirectPlay         bool          `json:"SupportsDirectPlay"`
	SupportsDirectStream       bool          `json:"SupportsDirectStream"`
	SupportsTranscoding        bool          `json:"SupportsTranscoding"`
	MediaStreams               []MediaStream `json:"MediaStreams,omitempty"`
	DefaultAudioStreamIndex    int           `json:"DefaultAudioStreamIndex,omitempty"`
	DefaultSubtitleStreamIndex int           `json:"DefaultSubtitleStreamIndex,omitempty"`
}

// VideoStream returns the first video stream, or nil.
func (s *MediaSource) VideoStream() *MediaStream {
	return s.streamOfType("Video")
}

// AudioStream returns the first audio stream, or nil.
func (s *MediaSource) AudioStream() *MediaStream {
	return s.streamOfType("Audio")
}

func (s *MediaSource) streamOfType(t string) *MediaStream {
	for i := range s.MediaStreams {
		if s.MediaStreams[i].Type == t {
			return &s.MediaStreams[i]
		}
	}
	return nil
}

// PlaybackInfoResponse is the negotiated set of candidate media sources.
type PlaybackInfoResponse struct {
	MediaSources []MediaSource `json:"MediaSources"`
	ErrorCode    string        `json:"ErrorCode,omitempty"`
}

// Item is the subset of catalog item metadata playback needs.
type Item struct {
	ID           string `json:"Id"`
	Name         string `json:"Name"`
	Type         string `json:"Type"` // Movie, Episode, ...
	SeriesID     string `json:"SeriesId,omitempty"`
	SeriesName   string `json:"SeriesName,omitempty"`
	SeasonNumber int    `json:"ParentIndexNumber,omitempty"`
	IndexNumber  int    `json:"IndexNumber,omitempty"`
	RunTimeTicks int64  `json:"RunTimeTicks,omitempty"`
}

// MediaSegment is a server-supplied skippable time range, in ticks.
type MediaSegment struct {
	ID         string `json:"Id,omitempty"`
	ItemID     string `json:"ItemId,omitempty"`
	Type       string `json:"Type"` // Intro, Outro, Credits, Preview, Recap
	StartTicks int64  `json:"StartTicks"`
	EndTicks   int64  `json:"EndTicks"`
}

// PlaybackReport is the payload for started/progress/stopped reports.
type PlaybackReport struct {
	ItemID        string `json:"ItemId"`
	SessionID     string `json:"PlaySessionId"`
	MediaSourceID string `json:"MediaSourceId,omitempty"`
	PositionTicks int64  `json:"PositionTicks"`
	IsPaused      bool   `json:"IsPaused"`
	IsMuted       bool   `json:"IsMuted"`
	VolumeLevel   int    `json:"VolumeLevel"`
	PlayMethod    string `json:"PlayMethod,omitempty"` // DirectPlay, Transcode
}
