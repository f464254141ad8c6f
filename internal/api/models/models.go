// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"github.com/smazurov/playoutnode/internal/channels"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
)

// Health check models
type HealthData struct {
	Status   string `json:"status" example:"ok" doc:"Service status"`
	Message  string `json:"message" example:"API is healthy" doc:"Status message"`
	Detected bool   `json:"detected" doc:"Hardware detection has completed at least once"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Hardware models
type HardwareResponse struct {
	Body *hardware.Capabilities
}

type DetectRequest struct {
	Body *DetectRequestData `required:"false"`
}

type DetectRequestData struct {
	FFmpegPath string `json:"ffmpeg_path,omitempty" example:"/usr/bin/ffmpeg" doc:"Binary to detect with, empty keeps the configured one"`
	Hardware   string `json:"hardware,omitempty" example:"auto" doc:"Backend override, empty keeps the configured one"`
}

// Pipeline models
type PreviewRequestData struct {
	Source    types.StreamInfo      `json:"source" doc:"Source description; only path is required"`
	Output    *types.OutputSettings `json:"output,omitempty" doc:"Output settings, defaults to the service defaults"`
	Channel   string                `json:"channel,omitempty" example:"news" doc:"Channel profile applied over the output settings"`
	Probe     bool                  `json:"probe,omitempty" doc:"Probe the source before building"`
	Start     float64               `json:"start,omitempty" example:"30" doc:"Seek offset in seconds"`
	Finish    float64               `json:"finish,omitempty" example:"90" doc:"End position in seconds"`
	PtsOffset float64               `json:"pts_offset,omitempty" doc:"Output timestamp offset in seconds"`
}

type PreviewRequest struct {
	Body PreviewRequestData
}

type PipelineData struct {
	ID             string               `json:"id" doc:"Command identifier"`
	Command        string               `json:"command" example:"ffmpeg -nostdin -hide_banner ..." doc:"Shell-quoted command line"`
	Argv           []string             `json:"argv" doc:"Executable followed by arguments"`
	Env            []string             `json:"env,omitempty" example:"[\"LIBVA_DRIVER_NAME=iHD\"]"`
	VideoEncoder   string               `json:"video_encoder" example:"h264_vaapi"`
	AudioEncoder   string               `json:"audio_encoder,omitempty" example:"aac"`
	Accel          string               `json:"accel" example:"vaapi" doc:"Accelerator requested for the build"`
	DecodeAccel    string               `json:"decode_accel" example:"vaapi"`
	SoftwareDecode bool                 `json:"software_decode" doc:"Decoding fell back to the CPU"`
	Filters        []string             `json:"filters,omitempty" doc:"Applied filter fragments in order"`
	Channel        string               `json:"channel,omitempty"`
	Source         *types.StreamInfo    `json:"source,omitempty" doc:"Probe result when probe was requested"`
	Output         types.OutputSettings `json:"output" doc:"Effective output settings"`
}

type PipelineResponse struct {
	Body PipelineData
}

type ProbeRequest struct {
	Body struct {
		Path string `json:"path" minLength:"1" example:"/media/movies/feature.mkv" doc:"File path or URL"`
	}
}

type ProbeResponse struct {
	Body types.StreamInfo
}

// Channel models
type ChannelListData struct {
	Channels []channels.Profile `json:"channels" doc:"Channel profiles sorted by id"`
	Count    int                `json:"count" example:"2"`
	Path     string             `json:"path" example:"channels.toml" doc:"Backing file"`
}

type ChannelListResponse struct {
	Body ChannelListData
}

type ChannelIDInput struct {
	ID string `path:"id" pattern:"^[a-zA-Z0-9_-]+$" maxLength:"64" example:"news" doc:"Channel identifier"`
}

type ChannelPutRequest struct {
	ID   string `path:"id" pattern:"^[a-zA-Z0-9_-]+$" maxLength:"64" example:"news" doc:"Channel identifier"`
	Body channels.Profile
}

type ChannelResponse struct {
	Body channels.Profile
}

// Options models for FFmpeg configuration
type OptionsData struct {
	Options []ffmpeg.Option `json:"options" doc:"All available FFmpeg input options with metadata"`
}

type OptionsResponse struct {
	Body OptionsData
}
