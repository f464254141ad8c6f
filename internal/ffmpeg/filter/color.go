package filter

import (
	"fmt"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// DefaultTonemapAlgorithm is used when a Tonemap has no algorithm set.
const DefaultTonemapAlgorithm = "hable"

// Tonemap converts HDR frames to SDR bt709 in software. Frames held in
// hardware are downloaded as part of the stage.
type Tonemap struct {
	Algorithm string
}

func (Tonemap) Kind() Kind { return KindTonemap }
func (Tonemap) sealed()    {}

// Requires is AnyLocation because the stage downloads hardware frames itself.
func (Tonemap) Requires() state.LocationRequirement { return state.AnyLocation }

func (Tonemap) Applies(fs state.FrameState) bool {
	return fs.IsHDR()
}

func (f Tonemap) Apply(fs state.FrameState) (string, state.FrameState) {
	alg := f.Algorithm
	if alg == "" {
		alg = DefaultTonemapAlgorithm
	}

	prefix := ""
	if fs.Location == state.Hardware {
		var download string
		download, fs = HardwareDownload{}.Apply(fs)
		prefix = download + Separator
	}

	frag := prefix + fmt.Sprintf(
		"zscale=t=linear:npl=100,format=gbrpf32le,zscale=p=bt709,tonemap=tonemap=%s:desat=0,zscale=t=bt709:m=bt709:r=tv,format=%s",
		alg, state.PixelFormatYUV420P,
	)
	return frag, fs.With(
		state.WithColor("tv", "bt709", "bt709", "bt709"),
		state.WithPixelFormat(state.PixelFormatYUV420P),
	)
}

// Deinterlace removes interlacing, emitting one frame per input frame.
// Accel picks the accelerator-side filter.
type Deinterlace struct {
	Accel state.HardwareAccel
}

func (Deinterlace) Kind() Kind { return KindDeinterlace }
func (Deinterlace) sealed()    {}

func (f Deinterlace) Requires() state.LocationRequirement {
	switch f.Accel {
	case state.HardwareNvenc, state.HardwareVaapi, state.HardwareQsv:
		return state.HardwareOnly
	default:
		return state.SoftwareOnly
	}
}

func (Deinterlace) Applies(fs state.FrameState) bool {
	return fs.Interlaced
}

func (f Deinterlace) Apply(fs state.FrameState) (string, state.FrameState) {
	var frag string
	switch f.Accel {
	case state.HardwareNvenc:
		frag = "yadif_cuda"
	case state.HardwareVaapi:
		frag = "deinterlace_vaapi"
	case state.HardwareQsv:
		frag = "deinterlace_qsv"
	default:
		frag = "yadif"
	}
	return frag, fs.With(state.WithInterlaced(false))
}

// PixelFormat converts software frames to Format.
type PixelFormat struct {
	Format string
}

func (PixelFormat) Kind() Kind                          { return KindPixelFormat }
func (PixelFormat) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (PixelFormat) sealed()                             {}

func (f PixelFormat) Applies(fs state.FrameState) bool {
	return f.Format != "" && fs.PixelFormat != f.Format
}

func (f PixelFormat) Apply(fs state.FrameState) (string, state.FrameState) {
	return "format=" + f.Format, fs.With(state.WithPixelFormat(f.Format))
}
