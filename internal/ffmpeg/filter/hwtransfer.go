package filter

import (
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// HardwareUpload moves software frames into accelerator memory. Only
// backends whose encoders consume device frames need it.
type HardwareUpload struct {
	Accel state.HardwareAccel
}

func (HardwareUpload) Kind() Kind                          { return KindHardwareUpload }
func (HardwareUpload) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (HardwareUpload) sealed()                             {}

// NeedsUpload reports whether encoders of accel read frames from device memory.
func NeedsUpload(accel state.HardwareAccel) bool {
	return accel.HoldsFramesInHardware()
}

func (f HardwareUpload) Applies(fs state.FrameState) bool {
	return fs.Location == state.Software && NeedsUpload(f.Accel)
}

func (f HardwareUpload) Apply(fs state.FrameState) (string, state.FrameState) {
	format := state.PixelFormatNV12
	if fs.BitDepth() == 10 {
		format = state.PixelFormatP010
	}

	var frag string
	switch f.Accel {
	case state.HardwareNvenc:
		frag = "hwupload_cuda"
		format = fs.PixelFormat
	case state.HardwareVaapi:
		frag = "format=" + format + ",hwupload"
	case state.HardwareQsv:
		frag = "format=" + format + ",hwupload=extra_hw_frames=64,format=qsv"
	}
	return frag, fs.With(state.WithLocation(state.Hardware), state.WithPixelFormat(format))
}

// HardwareDownload moves accelerator frames back to system memory.
type HardwareDownload struct{}

func (HardwareDownload) Kind() Kind                          { return KindHardwareDownload }
func (HardwareDownload) Requires() state.LocationRequirement { return state.HardwareOnly }
func (HardwareDownload) sealed()                             {}

func (HardwareDownload) Applies(fs state.FrameState) bool {
	return fs.Location == state.Hardware
}

func (HardwareDownload) Apply(fs state.FrameState) (string, state.FrameState) {
	format := state.PixelFormatNV12
	if fs.BitDepth() == 10 {
		format = state.PixelFormatP010
	}
	return "hwdownload,format=" + format, fs.With(
		state.WithLocation(state.Software),
		state.WithPixelFormat(format),
	)
}
