package types

import (
	"strings"
	"time"
)

// SourceKind classifies where an input is read from. Network kinds get
// different reconnect and timeout budgets.
type SourceKind string

const (
	SourceLocal       SourceKind = "local"
	SourceHTTP        SourceKind = "http"
	SourceMediaServer SourceKind = "media_server" // Plex, Jellyfin, Emby
	SourceRTSP        SourceKind = "rtsp"
	SourceRTMP        SourceKind = "rtmp"
	SourceSRT         SourceKind = "srt"
	SourceUDP         SourceKind = "udp"
)

// ScalingMode controls how a source is fitted into the target frame.
type ScalingMode string

const (
	ScalingPad     ScalingMode = "pad"
	ScalingStretch ScalingMode = "stretch"
	ScalingCrop    ScalingMode = "crop"
)

// OutputFormat is the container the engine writes.
type OutputFormat string

const (
	FormatMPEGTS OutputFormat = "mpegts"
	FormatHLS    OutputFormat = "hls"
	FormatMKV    OutputFormat = "mkv"
	FormatMP4    OutputFormat = "mp4"
	FormatMOV    OutputFormat = "mov"
	FormatNUT    OutputFormat = "nut"
)

// StreamInfo describes a probed (or collaborator supplied) media source.
type StreamInfo struct {
	Path       string        `json:"path" doc:"File path or URL of the source"`
	FormatName string        `json:"format_name,omitempty" doc:"Container format reported by the probe"`
	Duration   time.Duration `json:"duration,omitempty" doc:"Source duration"`
	Size       int64         `json:"size,omitempty" doc:"Size in bytes"`
	BitRate    int64         `json:"bit_rate,omitempty" doc:"Overall bitrate in bits per second"`

	VideoStreams       int     `json:"video_streams,omitempty"`
	Width              int     `json:"width,omitempty"`
	Height             int     `json:"height,omitempty"`
	VideoCodec         string  `json:"video_codec,omitempty" example:"h264"`
	VideoProfile       string  `json:"video_profile,omitempty" example:"High 10"`
	PixelFormat        string  `json:"pixel_format,omitempty" example:"yuv420p"`
	FrameRate          float64 `json:"frame_rate,omitempty" example:"29.97"`
	FieldOrder         string  `json:"field_order,omitempty" example:"progressive"`
	SampleAspectRatio  string  `json:"sample_aspect_ratio,omitempty" example:"1:1"`
	DisplayAspectRatio string  `json:"display_aspect_ratio,omitempty" example:"16:9"`
	ColorRange         string  `json:"color_range,omitempty"`
	ColorSpace         string  `json:"color_space,omitempty"`
	ColorTransfer      string  `json:"color_transfer,omitempty"`
	ColorPrimaries     string  `json:"color_primaries,omitempty"`

	AudioStreams     int    `json:"audio_streams,omitempty"`
	AudioCodec       string `json:"audio_codec,omitempty" example:"aac"`
	AudioChannels    int    `json:"audio_channels,omitempty"`
	AudioSampleRate  int    `json:"audio_sample_rate,omitempty"`
	AudioStreamIndex int    `json:"audio_stream_index,omitempty" doc:"Index of the selected stream among audio streams"`

	IsNetwork  bool       `json:"is_network" required:"false" doc:"Source is read over the network"`
	IsLive     bool       `json:"is_live,omitempty" doc:"Source has no fixed end"`
	SourceKind SourceKind `json:"source_kind,omitempty" enum:"local,http,media_server,rtsp,rtmp,srt,udp"`
}

// Interlaced reports whether the source field order indicates interlacing.
func (s StreamInfo) Interlaced() bool {
	switch strings.ToLower(s.FieldOrder) {
	case "tt", "bb", "tb", "bt":
		return true
	default:
		return false
	}
}

// Anamorphic reports whether the source has non-square pixels.
func (s StreamInfo) Anamorphic() bool {
	sar := strings.TrimSpace(s.SampleAspectRatio)
	return sar != "" && sar != "1:1" && sar != "0:1" && sar != "N/A"
}

// Kind returns the source kind, treating an unset kind on a network source as HTTP.
func (s StreamInfo) Kind() SourceKind {
	if s.SourceKind != "" {
		return s.SourceKind
	}
	if s.IsNetwork {
		return SourceHTTP
	}
	return SourceLocal
}

// WatermarkSettings describes an image composited over the video.
type WatermarkSettings struct {
	Path          string  `toml:"path" json:"path"`
	Position      string  `toml:"position" json:"position,omitempty" enum:"top-left,top-right,bottom-left,bottom-right"`
	MarginPercent int     `toml:"margin_percent" json:"margin_percent,omitempty"`
	WidthPercent  int     `toml:"width_percent" json:"width_percent,omitempty"`
	Opacity       float64 `toml:"opacity" json:"opacity,omitempty"`
}

// HLSSettings holds segmenter parameters for HLS output.
type HLSSettings struct {
	PlaylistPath    string `toml:"playlist_path" json:"playlist_path,omitempty"`
	SegmentTemplate string `toml:"segment_template" json:"segment_template,omitempty"`
	SegmentSeconds  int    `toml:"segment_seconds" json:"segment_seconds,omitempty"`
	ListSize        int    `toml:"list_size" json:"list_size,omitempty"`
}

// OutputSettings is the target profile for one transcode.
type OutputSettings struct {
	Width           int          `toml:"width" json:"width,omitempty" example:"1920"`
	Height          int          `toml:"height" json:"height,omitempty" example:"1080"`
	VideoCodec      string       `toml:"video_codec" json:"video_codec,omitempty" example:"h264"`
	AudioCodec      string       `toml:"audio_codec" json:"audio_codec,omitempty" example:"aac"`
	VideoBitrate    int          `toml:"video_bitrate" json:"video_bitrate,omitempty" doc:"Video bitrate in kbps"`
	VideoMaxBitrate int          `toml:"video_max_bitrate" json:"video_max_bitrate,omitempty" doc:"Peak video bitrate in kbps"`
	VideoBufferSize int          `toml:"video_buffer_size" json:"video_buffer_size,omitempty" doc:"Rate control buffer in kbps"`
	AudioBitrate    int          `toml:"audio_bitrate" json:"audio_bitrate,omitempty" doc:"Audio bitrate in kbps"`
	AudioChannels   int          `toml:"audio_channels" json:"audio_channels,omitempty"`
	AudioSampleRate int          `toml:"audio_sample_rate" json:"audio_sample_rate,omitempty"`
	FrameRate       float64      `toml:"frame_rate" json:"frame_rate,omitempty"`
	ScalingMode     ScalingMode  `toml:"scaling_mode" json:"scaling_mode,omitempty" enum:"pad,stretch,crop"`
	PadColor        string       `toml:"pad_color" json:"pad_color,omitempty"`
	NormalizeAudio  bool         `toml:"normalize_audio" json:"normalize_audio,omitempty"`
	Deinterlace     bool         `toml:"deinterlace" json:"deinterlace,omitempty"`
	Format          OutputFormat `toml:"format" json:"format,omitempty" enum:"mpegts,hls,mkv,mp4,mov,nut"`
	Destination     string       `toml:"destination" json:"destination,omitempty" doc:"Output path, empty writes to pipe:1"`
	Hardware        string       `toml:"hardware" json:"hardware,omitempty" doc:"Acceleration override: auto or a backend name"`
	VaapiDevice     string       `toml:"vaapi_device" json:"vaapi_device,omitempty"`
	VaapiDriver     string       `toml:"vaapi_driver" json:"vaapi_driver,omitempty"`

	Quality   *QualityParams     `toml:"quality,omitempty" json:"quality,omitempty"`
	Watermark *WatermarkSettings `toml:"watermark,omitempty" json:"watermark,omitempty"`
	HLS       *HLSSettings       `toml:"hls,omitempty" json:"hls,omitempty"`

	TonemapHDR       bool   `toml:"tonemap_hdr" json:"tonemap_hdr,omitempty"`
	TonemapAlgorithm string `toml:"tonemap_algorithm" json:"tonemap_algorithm,omitempty"`

	ServiceProvider  string `toml:"service_provider" json:"service_provider,omitempty"`
	ServiceName      string `toml:"service_name" json:"service_name,omitempty"`
	DoNotMapMetadata bool   `toml:"do_not_map_metadata" json:"do_not_map_metadata,omitempty"`
	ThreadCount      int    `toml:"thread_count" json:"thread_count,omitempty"`

	Realtime   *bool         `toml:"realtime,omitempty" json:"realtime,omitempty" doc:"Force or suppress -re pacing"`
	PadAudioTo time.Duration `toml:"-" json:"pad_audio_to,omitempty"`
}
