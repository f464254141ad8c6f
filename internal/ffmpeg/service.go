package ffmpeg

import (
	"time"

	"github.com/smazurov/playoutnode/internal/events"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/smazurov/playoutnode/internal/metrics"
	"github.com/smazurov/playoutnode/internal/types"
)

// CapabilitySource supplies the current accelerator inventory.
// *hardware.Cache satisfies it.
type CapabilitySource interface {
	Get() *hardware.Capabilities
}

// Builder runs Build against a live inventory and reports each build to
// metrics and the event bus.
type Builder struct {
	Caps   CapabilitySource
	Bus    *events.Bus
	Logger logging.Logger
}

// NewBuilder returns a Builder logging to the "pipeline" module.
func NewBuilder(caps CapabilitySource, bus *events.Bus) *Builder {
	return &Builder{
		Caps:   caps,
		Bus:    bus,
		Logger: logging.GetLogger("pipeline"),
	}
}

// Build renders a command with the current capabilities.
func (b *Builder) Build(in types.StreamInfo, out types.OutputSettings, opts ...BuildOption) (*Command, error) {
	var caps *hardware.Capabilities
	if b.Caps != nil {
		caps = b.Caps.Get()
	}

	cmd, err := Build(in, out, caps, opts...)
	if err != nil {
		metrics.RecordBuild("", err)
		b.logger().Warn("Pipeline build failed", "source", in.Path, "error", err)
		return nil, err
	}
	metrics.RecordBuild(cmd.EncoderFamily, nil)

	if cmd.SoftwareDecode {
		metrics.RecordSoftwareDecode(string(cmd.Accel), in.VideoCodec)
		b.logger().Debug("Decoding on CPU",
			"accel", cmd.Accel,
			"codec", in.VideoCodec,
			"pixel_format", in.PixelFormat)
	}

	b.logger().Debug("Pipeline built",
		"id", cmd.ID,
		"channel", cmd.ChannelID,
		"video_encoder", cmd.VideoEncoder,
		"audio_encoder", cmd.AudioEncoder,
		"decode", cmd.Pipeline.DecoderMode)

	b.Bus.Publish(events.PipelineBuiltEvent{
		ID:           cmd.ID.String(),
		ChannelID:    cmd.ChannelID,
		Source:       in.Path,
		VideoEncoder: cmd.VideoEncoder,
		AudioEncoder: cmd.AudioEncoder,
		DecodeAccel:  string(cmd.Pipeline.DecoderMode),
		Filters:      cmd.Filters(),
		Timestamp:    time.Now().Format(time.RFC3339),
	})
	return cmd, nil
}

func (b *Builder) logger() logging.Logger {
	if b.Logger == nil {
		return logging.GetLogger("pipeline")
	}
	return b.Logger
}
