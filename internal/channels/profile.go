// Package channels stores named channel profiles: per-channel overrides of the
// output settings used to build transcoding commands.
package channels

import (
	"errors"
	"fmt"

	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
)

var (
	// ErrChannelNotFound is returned for unknown channel identifiers.
	ErrChannelNotFound = errors.New("channel not found")
	// ErrInvalidChannel is returned for profiles that fail validation.
	ErrInvalidChannel = errors.New("invalid channel profile")
)

// Profile holds the overrides of one channel. Zero values leave the base
// settings unchanged; pointer fields distinguish "off" from "unset".
type Profile struct {
	ID   string `toml:"id" json:"id" required:"false" example:"news" doc:"Taken from the table key or path"`
	Name string `toml:"name" json:"name,omitempty" example:"News 24"`

	Width           int     `toml:"width,omitempty" json:"width,omitempty"`
	Height          int     `toml:"height,omitempty" json:"height,omitempty"`
	VideoCodec      string  `toml:"video_codec,omitempty" json:"video_codec,omitempty"`
	AudioCodec      string  `toml:"audio_codec,omitempty" json:"audio_codec,omitempty"`
	VideoBitrate    int     `toml:"video_bitrate,omitempty" json:"video_bitrate,omitempty"`
	VideoMaxBitrate int     `toml:"video_max_bitrate,omitempty" json:"video_max_bitrate,omitempty"`
	VideoBufferSize int     `toml:"video_buffer_size,omitempty" json:"video_buffer_size,omitempty"`
	AudioBitrate    int     `toml:"audio_bitrate,omitempty" json:"audio_bitrate,omitempty"`
	AudioChannels   int     `toml:"audio_channels,omitempty" json:"audio_channels,omitempty"`
	AudioSampleRate int     `toml:"audio_sample_rate,omitempty" json:"audio_sample_rate,omitempty"`
	FrameRate       float64 `toml:"frame_rate,omitempty" json:"frame_rate,omitempty"`

	ScalingMode    types.ScalingMode  `toml:"scaling_mode,omitempty" json:"scaling_mode,omitempty"`
	PadColor       string             `toml:"pad_color,omitempty" json:"pad_color,omitempty"`
	NormalizeAudio *bool              `toml:"normalize_audio,omitempty" json:"normalize_audio,omitempty"`
	Deinterlace    *bool              `toml:"deinterlace,omitempty" json:"deinterlace,omitempty"`
	TonemapHDR     *bool              `toml:"tonemap_hdr,omitempty" json:"tonemap_hdr,omitempty"`
	Format         types.OutputFormat `toml:"format,omitempty" json:"format,omitempty"`
	Destination    string             `toml:"destination,omitempty" json:"destination,omitempty"`

	Hardware    string `toml:"hardware,omitempty" json:"hardware,omitempty" doc:"auto, none or a backend name"`
	VaapiDevice string `toml:"vaapi_device,omitempty" json:"vaapi_device,omitempty"`
	VaapiDriver string `toml:"vaapi_driver,omitempty" json:"vaapi_driver,omitempty"`
	ThreadCount int    `toml:"thread_count,omitempty" json:"thread_count,omitempty"`

	ServiceProvider string `toml:"service_provider,omitempty" json:"service_provider,omitempty"`
	ServiceName     string `toml:"service_name,omitempty" json:"service_name,omitempty"`

	Quality      *types.QualityParams     `toml:"quality,omitempty" json:"quality,omitempty"`
	Watermark    *types.WatermarkSettings `toml:"watermark,omitempty" json:"watermark,omitempty"`
	HLS          *types.HLSSettings       `toml:"hls,omitempty" json:"hls,omitempty"`
	InputOptions []ffmpeg.OptionType      `toml:"input_options,omitempty" json:"input_options,omitempty"`
}

// Validate checks the fields that would otherwise only fail at build time.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidChannel)
	}
	if !hardware.IsAuto(p.Hardware) {
		if _, ok := state.ParseHardwareAccel(p.Hardware); !ok {
			return fmt.Errorf("%w: %s: unknown hardware %q", ErrInvalidChannel, p.ID, p.Hardware)
		}
	}
	if len(p.InputOptions) > 0 {
		if err := ffmpeg.ValidateOptions(p.InputOptions); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidChannel, p.ID, err)
		}
	}
	if p.Width < 0 || p.Height < 0 || (p.Width == 0) != (p.Height == 0) {
		return fmt.Errorf("%w: %s: width and height must be set together", ErrInvalidChannel, p.ID)
	}
	return nil
}

// ToOutputSettings applies the profile over base.
func (p Profile) ToOutputSettings(base types.OutputSettings) types.OutputSettings {
	out := base
	if p.Width > 0 && p.Height > 0 {
		out.Width, out.Height = p.Width, p.Height
	}
	setString(&out.VideoCodec, p.VideoCodec)
	setString(&out.AudioCodec, p.AudioCodec)
	setInt(&out.VideoBitrate, p.VideoBitrate)
	setInt(&out.VideoMaxBitrate, p.VideoMaxBitrate)
	setInt(&out.VideoBufferSize, p.VideoBufferSize)
	setInt(&out.AudioBitrate, p.AudioBitrate)
	setInt(&out.AudioChannels, p.AudioChannels)
	setInt(&out.AudioSampleRate, p.AudioSampleRate)
	setInt(&out.ThreadCount, p.ThreadCount)
	if p.FrameRate > 0 {
		out.FrameRate = p.FrameRate
	}
	if p.ScalingMode != "" {
		out.ScalingMode = p.ScalingMode
	}
	setString(&out.PadColor, p.PadColor)
	setBool(&out.NormalizeAudio, p.NormalizeAudio)
	setBool(&out.Deinterlace, p.Deinterlace)
	setBool(&out.TonemapHDR, p.TonemapHDR)
	if p.Format != "" {
		out.Format = p.Format
	}
	setString(&out.Destination, p.Destination)
	setString(&out.Hardware, p.Hardware)
	setString(&out.VaapiDevice, p.VaapiDevice)
	setString(&out.VaapiDriver, p.VaapiDriver)
	setString(&out.ServiceProvider, p.ServiceProvider)
	setString(&out.ServiceName, p.ServiceName)
	if p.Quality != nil {
		out.Quality = p.Quality
	}
	if p.Watermark != nil {
		out.Watermark = p.Watermark
	}
	if p.HLS != nil {
		out.HLS = p.HLS
	}
	return out
}

// BuildOptions returns the build options that tag commands with this channel.
func (p Profile) BuildOptions() []ffmpeg.BuildOption {
	opts := []ffmpeg.BuildOption{ffmpeg.WithChannel(p.ID)}
	if len(p.InputOptions) > 0 {
		opts = append(opts, ffmpeg.WithInputOptions(p.InputOptions))
	}
	return opts
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
