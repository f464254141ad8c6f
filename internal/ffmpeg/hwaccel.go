package ffmpeg

import (
	"slices"
	"strings"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// DefaultVaapiDevice is the render node used when none is configured.
const DefaultVaapiDevice = "/dev/dri/renderD128"

// qsvDevice is the name given to the initialized QSV device.
const qsvDevice = "hw"

// softwareDecodeCodecs lists source codecs each backend cannot decode.
var softwareDecodeCodecs = map[state.HardwareAccel][]string{
	state.HardwareVideoToolbox: {"mpeg2video", "mpeg4", "msmpeg4v2", "msmpeg4v3", "vc1", "vp9", "av1"},
	state.HardwareNvenc:        {"mpeg4", "msmpeg4v2", "msmpeg4v3"},
	state.HardwareQsv:          {"mpeg4", "msmpeg4v3", "vp8"},
	state.HardwareVaapi:        {"mpeg4", "msmpeg4v3"},
	state.HardwareRkmpp:        {"mpeg4", "msmpeg4v3"},
}

// decodeAccel returns the backend that decodes in, falling back to the CPU
// for combinations the backend cannot handle.
func decodeAccel(accel state.HardwareAccel, in types.StreamInfo) state.HardwareAccel {
	if !accel.IsHardware() || !hardwareDecodable(accel, in) {
		return state.HardwareNone
	}
	return accel
}

func hardwareDecodable(accel state.HardwareAccel, in types.StreamInfo) bool {
	codec := strings.ToLower(in.VideoCodec)
	if codec == "" {
		return false
	}
	if codec == "h264" && isTenBit(in) {
		return false
	}
	switch accel {
	case state.HardwareAmf:
		return false
	case state.HardwareV4l2m2m:
		return codec == "h264" || codec == "hevc"
	default:
		return !slices.Contains(softwareDecodeCodecs[accel], codec)
	}
}

func isTenBit(in types.StreamInfo) bool {
	if state.FromStream(in).BitDepth() == 10 {
		return true
	}
	return strings.Contains(strings.ToLower(in.VideoProfile), "10")
}

// usesAccel reports whether either side of the pipeline runs on accel.
func usesAccel(ps state.PipelineState, accel state.HardwareAccel) bool {
	return ps.DecoderMode == accel || ps.EncoderMode == accel
}

// deviceArgs initializes the device shared by decode, filters and encode.
func deviceArgs(ps state.PipelineState) []string {
	var args []string
	if usesAccel(ps, state.HardwareVaapi) {
		args = append(args, "-vaapi_device", ps.VaapiDevice)
	}
	if usesAccel(ps, state.HardwareQsv) {
		args = append(args, "-init_hw_device", "qsv="+qsvDevice, "-filter_hw_device", qsvDevice)
	}
	return args
}

// decodeArgs selects the hardware decoder for the pipeline's decode backend.
func decodeArgs(ps state.PipelineState, in types.StreamInfo) []string {
	switch ps.DecoderMode {
	case state.HardwareNvenc:
		return []string{"-hwaccel", "cuda", "-hwaccel_output_format", "cuda"}
	case state.HardwareVaapi:
		return []string{"-hwaccel", "vaapi", "-hwaccel_output_format", "vaapi"}
	case state.HardwareQsv:
		return []string{"-hwaccel", "qsv", "-hwaccel_output_format", "qsv"}
	case state.HardwareVideoToolbox:
		return []string{"-hwaccel", "videotoolbox"}
	case state.HardwareRkmpp:
		return []string{"-hwaccel", "rkmpp"}
	case state.HardwareV4l2m2m:
		return []string{"-c:v", strings.ToLower(in.VideoCodec) + "_v4l2m2m"}
	default:
		return nil
	}
}

// networkArgs returns reconnect and timeout flags for remote sources.
func networkArgs(in types.StreamInfo) []string {
	switch in.Kind() {
	case types.SourceHTTP:
		return []string{
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_on_network_error", "1",
			"-reconnect_delay_max", "5",
			"-rw_timeout", "10000000",
		}
	case types.SourceMediaServer:
		return []string{
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_on_network_error", "1",
			"-reconnect_delay_max", "10",
			"-rw_timeout", "30000000",
		}
	case types.SourceRTSP:
		return []string{"-rtsp_transport", "tcp", "-timeout", "10000000"}
	case types.SourceRTMP, types.SourceSRT:
		return []string{"-timeout", "10000000"}
	case types.SourceUDP:
		return []string{"-timeout", "5000000"}
	default:
		return nil
	}
}
