package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// Scale resizes frames to Target. Accel selects a hardware scaler; frames
// must already be in that accelerator's memory.
type Scale struct {
	Target state.FrameSize
	Mode   types.ScalingMode
	Accel  state.HardwareAccel
}

func (Scale) Kind() Kind { return KindScale }
func (Scale) sealed()    {}

func (f Scale) Requires() state.LocationRequirement {
	if f.hardwareScaler() != "" {
		return state.HardwareOnly
	}
	return state.SoftwareOnly
}

func (f Scale) Applies(fs state.FrameState) bool {
	return !f.Target.IsZero() && fs.CurrentSize() != f.Target
}

func (f Scale) Apply(fs state.FrameState) (string, state.FrameState) {
	fitted := fitSize(fs.CurrentSize(), f.Target, f.Mode)
	w, h := f.Target.Width, f.Target.Height

	var frag string
	switch f.hardwareScaler() {
	case "scale_cuda":
		if !fitted.IsZero() {
			w, h = fitted.Width, fitted.Height
		}
		frag = fmt.Sprintf("scale_cuda=%d:%d", w, h)
	case "scale_vaapi":
		if !fitted.IsZero() {
			w, h = fitted.Width, fitted.Height
		}
		frag = fmt.Sprintf("scale_vaapi=w=%d:h=%d:force_divisible_by=2", w, h)
	case "vpp_qsv":
		if !fitted.IsZero() {
			w, h = fitted.Width, fitted.Height
		}
		frag = fmt.Sprintf("vpp_qsv=w=%d:h=%d", w, h)
	default:
		frag = fmt.Sprintf("scale=%d:%d", w, h)
		switch f.Mode {
		case types.ScalingCrop:
			frag += ":force_original_aspect_ratio=increase"
		case types.ScalingStretch:
		default:
			frag += ":force_original_aspect_ratio=decrease"
		}
	}

	scaled := fitted
	if f.Mode == types.ScalingStretch || f.hardwareScaler() != "" {
		scaled = state.FrameSize{Width: w, Height: h}
	}
	return frag, fs.With(
		state.WithScaledSize(scaled),
		state.WithPaddedSize(state.FrameSize{}),
		state.WithCroppedSize(state.FrameSize{}),
	)
}

func (f Scale) hardwareScaler() string {
	switch f.Accel {
	case state.HardwareNvenc:
		return "scale_cuda"
	case state.HardwareVaapi:
		return "scale_vaapi"
	case state.HardwareQsv:
		return "vpp_qsv"
	default:
		return ""
	}
}

// fitSize returns the size src takes when scaled into target. It is zero
// when src is unknown and the mode keeps the aspect ratio.
func fitSize(src, target state.FrameSize, mode types.ScalingMode) state.FrameSize {
	if mode == types.ScalingStretch {
		return target
	}
	if src.IsZero() || src.Width <= 0 || src.Height <= 0 {
		return state.FrameSize{}
	}
	rw := float64(target.Width) / float64(src.Width)
	rh := float64(target.Height) / float64(src.Height)
	ratio := math.Min(rw, rh)
	if mode == types.ScalingCrop {
		ratio = math.Max(rw, rh)
	}
	return state.FrameSize{
		Width:  even(int(math.Round(float64(src.Width) * ratio))),
		Height: even(int(math.Round(float64(src.Height) * ratio))),
	}
}

func even(v int) int {
	return v - v%2
}

// Pad letterboxes or pillarboxes frames to Target.
type Pad struct {
	Target state.FrameSize
	Color  string
}

func (Pad) Kind() Kind                          { return KindPad }
func (Pad) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (Pad) sealed()                             {}

func (f Pad) Applies(fs state.FrameState) bool {
	return !f.Target.IsZero() && fs.CurrentSize() != f.Target
}

func (f Pad) Apply(fs state.FrameState) (string, state.FrameState) {
	color := f.Color
	if color == "" {
		color = "black"
	}
	frag := fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=%s", f.Target.Width, f.Target.Height, color)
	return frag, fs.With(state.WithPaddedSize(f.Target))
}

// Crop trims frames to Target around the center.
type Crop struct {
	Target state.FrameSize
}

func (Crop) Kind() Kind                          { return KindCrop }
func (Crop) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (Crop) sealed()                             {}

func (f Crop) Applies(fs state.FrameState) bool {
	return !f.Target.IsZero() && fs.CurrentSize() != f.Target
}

func (f Crop) Apply(fs state.FrameState) (string, state.FrameState) {
	return fmt.Sprintf("crop=%d:%d", f.Target.Width, f.Target.Height), fs.With(state.WithCroppedSize(f.Target))
}

// SampleAspectRatio squares the pixels of anamorphic sources. It must run
// before any scaling so the scaler sees display geometry.
type SampleAspectRatio struct {
	// SAR is the source ratio, e.g. "32:27". Used only to track the new width.
	SAR string
}

func (SampleAspectRatio) Kind() Kind                          { return KindSampleAspectRatio }
func (SampleAspectRatio) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (SampleAspectRatio) sealed()                             {}

func (SampleAspectRatio) Applies(fs state.FrameState) bool {
	return fs.Anamorphic
}

func (f SampleAspectRatio) Apply(fs state.FrameState) (string, state.FrameState) {
	size := state.FrameSize{}
	cur := fs.CurrentSize()
	if num, den, ok := parseRatio(f.SAR); ok && !cur.IsZero() {
		size = state.FrameSize{
			Width:  even(int(math.Round(float64(cur.Width) * num / den))),
			Height: cur.Height,
		}
	}
	return "scale=iw*sar:ih,setsar=1", fs.With(
		state.WithAnamorphic(false),
		state.WithScaledSize(size),
		state.WithPaddedSize(state.FrameSize{}),
		state.WithCroppedSize(state.FrameSize{}),
	)
}

func parseRatio(s string) (float64, float64, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 || num == 0 {
		return 0, 0, false
	}
	return num, den, true
}
