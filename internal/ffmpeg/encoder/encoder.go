// Package encoder models the engine's video, audio and subtitle encoders as a
// closed set of variants grouped by implementation family.
package encoder

import (
	"errors"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

var (
	// ErrUnsupportedCodec is returned when no encoder, software included, exists for a codec.
	ErrUnsupportedCodec = errors.New("unsupported codec")
	// ErrUnsupportedRateControl is returned when a family cannot honor a rate control mode.
	ErrUnsupportedRateControl = errors.New("unsupported rate control mode")
)

// StreamKind is the kind of stream an encoder produces.
type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
	StreamSubtitle
)

func (k StreamKind) String() string {
	switch k {
	case StreamAudio:
		return "audio"
	case StreamSubtitle:
		return "subtitle"
	default:
		return "video"
	}
}

// Family is an encoder implementation family.
type Family string

const (
	FamilyCopy         Family = "copy"
	FamilySoftware     Family = "software"
	FamilyVideoToolbox Family = "videotoolbox"
	FamilyNvenc        Family = "nvenc"
	FamilyAmf          Family = "amf"
	FamilyQsv          Family = "qsv"
	FamilyVaapi        Family = "vaapi"
	FamilyRkmpp        Family = "rkmpp"
	FamilyV4l2m2m      Family = "v4l2m2m"
)

// IsHardware reports whether the family runs on an accelerator.
func (f Family) IsHardware() bool {
	return f != FamilyCopy && f != FamilySoftware
}

// Accel returns the acceleration backend of a hardware family.
func (f Family) Accel() state.HardwareAccel {
	if !f.IsHardware() {
		return state.HardwareNone
	}
	return state.HardwareAccel(f)
}

// Encoder produces the codec selection and tuning arguments for one output
// stream. The set of implementations is closed to this package.
type Encoder interface {
	Name() string
	Kind() StreamKind
	Family() Family
	// Args returns the codec and rate control arguments. A nil q selects the
	// family defaults.
	Args(q *types.QualityParams) ([]string, error)
	// Apply returns the frame state after encoding.
	Apply(fs state.FrameState) state.FrameState
	// InputLocation is where the encoder expects frames.
	InputLocation() state.MemoryLocation

	sealed()
}
