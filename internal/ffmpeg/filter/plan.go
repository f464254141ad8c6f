package filter

import (
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// Plan describes the video processing a build wants.
type Plan struct {
	Target      state.FrameSize
	ScalingMode types.ScalingMode
	PadColor    string
	SAR         string

	Deinterlace      bool
	TonemapHDR       bool
	TonemapAlgorithm string
	Realtime         bool
	Watermark        bool

	// DecodeAccel is the backend that produced the initial frames.
	DecodeAccel state.HardwareAccel
	// EncodeAccel is the backend of the selected encoder; EncoderInput is
	// where that encoder expects frames.
	EncodeAccel  state.HardwareAccel
	EncoderInput state.MemoryLocation
	// PixelFormat is the format software frames must have for the encoder.
	PixelFormat string
}

// NewVideoChain orders the video filters for p starting from in. Stages are
// added only when they apply, and a download is inserted before any
// software-only stage while frames are in hardware. A required upload is
// always the last stage.
func NewVideoChain(in state.FrameState, p Plan) []Filter {
	b := &chainBuilder{cur: in, decode: p.DecodeAccel}

	b.add(SampleAspectRatio{SAR: p.SAR})
	if p.Deinterlace {
		b.add(Deinterlace{Accel: b.accelInPlace()})
	}
	if p.TonemapHDR {
		b.add(Tonemap{Algorithm: p.TonemapAlgorithm})
	}

	mode := p.ScalingMode
	if mode == "" {
		mode = types.ScalingPad
	}
	if !p.Target.IsZero() {
		scaler := b.accelInPlace()
		// Hardware scalers cannot fit an unknown source into the target, so
		// letterboxing and cropping fall back to the software scaler.
		if mode != types.ScalingStretch && b.cur.CurrentSize().IsZero() {
			scaler = state.HardwareNone
		}
		b.add(Scale{Target: p.Target, Mode: mode, Accel: scaler})
		switch mode {
		case types.ScalingPad:
			b.add(Pad{Target: p.Target, Color: p.PadColor})
		case types.ScalingCrop:
			b.add(Crop{Target: p.Target})
		}
	}

	// Frames from one accelerator cannot feed another accelerator's encoder,
	// and an overlay needs system memory.
	if b.cur.Location == state.Hardware &&
		(p.EncoderInput == state.Software || p.EncodeAccel != b.decode || p.Watermark) {
		b.add(HardwareDownload{})
	}

	if b.cur.Location == state.Software && p.EncoderInput == state.Software {
		b.add(PixelFormat{Format: p.PixelFormat})
	}
	if p.Realtime {
		b.add(Realtime{})
	}
	if p.EncoderInput == state.Hardware {
		b.add(HardwareUpload{Accel: p.EncodeAccel})
	}
	return b.filters
}

// NewAudioChain returns the audio filters: resync, optional silence padding,
// optional loudness normalization.
func NewAudioChain(normalize bool, padTo time.Duration) []Filter {
	filters := []Filter{AudioResample{}}
	if padTo > 0 {
		filters = append(filters, AudioPad{Duration: padTo})
	}
	if normalize {
		filters = append(filters, Loudnorm{})
	}
	return filters
}

type chainBuilder struct {
	cur     state.FrameState
	decode  state.HardwareAccel
	filters []Filter
}

// accelInPlace is the accelerator whose filters can run on the current
// frames without a transfer.
func (b *chainBuilder) accelInPlace() state.HardwareAccel {
	if b.cur.Location == state.Hardware {
		return b.decode
	}
	return state.HardwareNone
}

func (b *chainBuilder) add(f Filter) {
	if !f.Applies(b.cur) {
		return
	}
	if f.Requires() == state.SoftwareOnly && b.cur.Location == state.Hardware {
		b.push(HardwareDownload{})
	}
	b.push(f)
}

func (b *chainBuilder) push(f Filter) {
	_, b.cur = f.Apply(b.cur)
	b.filters = append(b.filters, f)
}
