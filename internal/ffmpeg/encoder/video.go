package encoder

import (
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

func videoArgs(name string, q *types.QualityParams, rc func(string, *types.QualityParams) ([]string, error)) ([]string, error) {
	tuning, err := rc(name, q)
	if err != nil {
		return nil, err
	}
	return append([]string{"-c:v", name}, tuning...), nil
}

// onDevice is the state transition shared by hardware encoders.
func onDevice(fs state.FrameState, codec string) state.FrameState {
	return fs.With(state.WithVideoCodec(codec), state.WithLocation(state.Hardware))
}

// Software encodes on the CPU.
type Software struct {
	Codec string
}

func (e Software) Name() string                      { return softwareVideo[e.Codec] }
func (Software) Kind() StreamKind                    { return StreamVideo }
func (Software) Family() Family                      { return FamilySoftware }
func (Software) InputLocation() state.MemoryLocation { return state.Software }
func (Software) sealed()                             {}
func (e Software) Apply(fs state.FrameState) state.FrameState {
	return fs.With(state.WithVideoCodec(e.Codec))
}

func (e Software) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, softwareRateControl)
}

// VideoToolbox is the platform-native encoder on darwin. It reads system
// memory frames.
type VideoToolbox struct {
	Codec string
}

func (e VideoToolbox) Name() string                      { return HardwareName(e.Codec, FamilyVideoToolbox) }
func (VideoToolbox) Kind() StreamKind                    { return StreamVideo }
func (VideoToolbox) Family() Family                      { return FamilyVideoToolbox }
func (VideoToolbox) InputLocation() state.MemoryLocation { return state.Software }
func (VideoToolbox) sealed()                             {}
func (e VideoToolbox) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e VideoToolbox) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, videoToolboxRateControl)
}

// Nvenc encodes on NVIDIA GPUs from CUDA frames.
type Nvenc struct {
	Codec string
}

func (e Nvenc) Name() string                      { return HardwareName(e.Codec, FamilyNvenc) }
func (Nvenc) Kind() StreamKind                    { return StreamVideo }
func (Nvenc) Family() Family                      { return FamilyNvenc }
func (Nvenc) InputLocation() state.MemoryLocation { return state.Hardware }
func (Nvenc) sealed()                             {}
func (e Nvenc) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e Nvenc) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, nvencRateControl)
}

// Amf encodes on AMD GPUs. It reads system memory frames.
type Amf struct {
	Codec string
}

func (e Amf) Name() string                      { return HardwareName(e.Codec, FamilyAmf) }
func (Amf) Kind() StreamKind                    { return StreamVideo }
func (Amf) Family() Family                      { return FamilyAmf }
func (Amf) InputLocation() state.MemoryLocation { return state.Software }
func (Amf) sealed()                             {}
func (e Amf) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e Amf) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, amfRateControl)
}

// Qsv encodes with Intel Quick Sync from QSV surfaces.
type Qsv struct {
	Codec string
}

func (e Qsv) Name() string                      { return HardwareName(e.Codec, FamilyQsv) }
func (Qsv) Kind() StreamKind                    { return StreamVideo }
func (Qsv) Family() Family                      { return FamilyQsv }
func (Qsv) InputLocation() state.MemoryLocation { return state.Hardware }
func (Qsv) sealed()                             {}
func (e Qsv) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e Qsv) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, qsvRateControl)
}

// Vaapi encodes through VA-API from VA surfaces.
type Vaapi struct {
	Codec string
}

func (e Vaapi) Name() string                      { return HardwareName(e.Codec, FamilyVaapi) }
func (Vaapi) Kind() StreamKind                    { return StreamVideo }
func (Vaapi) Family() Family                      { return FamilyVaapi }
func (Vaapi) InputLocation() state.MemoryLocation { return state.Hardware }
func (Vaapi) sealed()                             {}
func (e Vaapi) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e Vaapi) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, vaapiRateControl)
}

// Rkmpp encodes on Rockchip MPP. It reads system memory frames.
type Rkmpp struct {
	Codec string
}

func (e Rkmpp) Name() string                      { return HardwareName(e.Codec, FamilyRkmpp) }
func (Rkmpp) Kind() StreamKind                    { return StreamVideo }
func (Rkmpp) Family() Family                      { return FamilyRkmpp }
func (Rkmpp) InputLocation() state.MemoryLocation { return state.Software }
func (Rkmpp) sealed()                             {}
func (e Rkmpp) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e Rkmpp) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, rkmppRateControl)
}

// V4l2m2m encodes through a V4L2 memory-to-memory device.
type V4l2m2m struct {
	Codec string
}

func (e V4l2m2m) Name() string                      { return HardwareName(e.Codec, FamilyV4l2m2m) }
func (V4l2m2m) Kind() StreamKind                    { return StreamVideo }
func (V4l2m2m) Family() Family                      { return FamilyV4l2m2m }
func (V4l2m2m) InputLocation() state.MemoryLocation { return state.Software }
func (V4l2m2m) sealed()                             {}
func (e V4l2m2m) Apply(fs state.FrameState) state.FrameState {
	return onDevice(fs, e.Codec)
}

func (e V4l2m2m) Args(q *types.QualityParams) ([]string, error) {
	return videoArgs(e.Name(), q, v4l2m2mRateControl)
}
