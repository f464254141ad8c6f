package events

// Event type constants for kelindar/event.
const (
	TypeCapabilitiesDetected uint32 = iota + 1
	TypeChannelsReloaded
	TypePipelineBuilt
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// CapabilitiesDetectedEvent is published after every hardware detection run,
// including runs that fell back to software only.
type CapabilitiesDetectedEvent struct {
	Available []string `json:"available" example:"[\"nvenc\",\"vaapi\"]" doc:"Accelerators reported by ffmpeg"`
	Preferred string   `json:"preferred" example:"nvenc" doc:"Accelerator chosen for new pipelines"`
	Platform  string   `json:"platform" example:"linux" doc:"Host platform used for preference order"`
	Failed    bool     `json:"failed" doc:"Detection failed and the inventory is software only"`
	Error     string   `json:"error,omitempty" doc:"Detection failure reason"`
	Duration  string   `json:"duration" example:"120ms" doc:"Time spent running ffmpeg"`
	Timestamp string   `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Detection timestamp"`
}

// Type returns the event type identifier for CapabilitiesDetectedEvent.
func (e CapabilitiesDetectedEvent) Type() uint32 { return TypeCapabilitiesDetected }

// ChannelsReloadedEvent is published when the channel profile file is loaded.
type ChannelsReloadedEvent struct {
	Channels  []string `json:"channels" doc:"Channel identifiers now loaded"`
	Error     string   `json:"error,omitempty" doc:"Reload failure, previous profiles stay active"`
	Timestamp string   `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Reload timestamp"`
}

// Type returns the event type identifier for ChannelsReloadedEvent.
func (e ChannelsReloadedEvent) Type() uint32 { return TypeChannelsReloaded }

// PipelineBuiltEvent is published for every command the orchestrator emits.
type PipelineBuiltEvent struct {
	ID           string   `json:"id" doc:"Command identifier"`
	ChannelID    string   `json:"channel_id,omitempty" doc:"Channel profile applied, if any"`
	Source       string   `json:"source" doc:"Input path or URL"`
	VideoEncoder string   `json:"video_encoder" example:"h264_nvenc"`
	AudioEncoder string   `json:"audio_encoder" example:"aac"`
	DecodeAccel  string   `json:"decode_accel" example:"nvenc"`
	Filters      []string `json:"filters,omitempty" doc:"Applied filter fragments in order"`
	Timestamp    string   `json:"timestamp" example:"2026-01-27T10:30:00Z"`
}

// Type returns the event type identifier for PipelineBuiltEvent.
func (e PipelineBuiltEvent) Type() uint32 { return TypePipelineBuilt }
