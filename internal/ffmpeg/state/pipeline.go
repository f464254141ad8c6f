package state

import (
	"strings"
	"time"

	"github.com/smazurov/playoutnode/internal/types"
)

// HardwareAccel names an acceleration backend family.
type HardwareAccel string

const (
	HardwareNone         HardwareAccel = "none"
	HardwareNvenc        HardwareAccel = "nvenc"
	HardwareAmf          HardwareAccel = "amf"
	HardwareQsv          HardwareAccel = "qsv"
	HardwareVideoToolbox HardwareAccel = "videotoolbox"
	HardwareVaapi        HardwareAccel = "vaapi"
	HardwareV4l2m2m      HardwareAccel = "v4l2m2m"
	HardwareRkmpp        HardwareAccel = "rkmpp"
)

// AllHardwareAccels lists every backend other than none.
var AllHardwareAccels = []HardwareAccel{
	HardwareVideoToolbox,
	HardwareNvenc,
	HardwareQsv,
	HardwareVaapi,
	HardwareAmf,
	HardwareRkmpp,
	HardwareV4l2m2m,
}

// ParseHardwareAccel maps a configuration token to a backend. The second
// return is false for unknown tokens. "cuda" is accepted as nvenc.
func ParseHardwareAccel(s string) (HardwareAccel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "software", "cpu":
		return HardwareNone, true
	case "nvenc", "cuda", "nvidia":
		return HardwareNvenc, true
	case "amf":
		return HardwareAmf, true
	case "qsv", "quicksync":
		return HardwareQsv, true
	case "videotoolbox":
		return HardwareVideoToolbox, true
	case "vaapi":
		return HardwareVaapi, true
	case "v4l2m2m":
		return HardwareV4l2m2m, true
	case "rkmpp":
		return HardwareRkmpp, true
	default:
		return HardwareNone, false
	}
}

// IsHardware reports whether a is an actual accelerator.
func (a HardwareAccel) IsHardware() bool {
	return a != "" && a != HardwareNone
}

// HoldsFramesInHardware reports whether decoding with a keeps frames in
// accelerator memory (hwaccel_output_format set).
func (a HardwareAccel) HoldsFramesInHardware() bool {
	switch a {
	case HardwareNvenc, HardwareVaapi, HardwareQsv:
		return true
	default:
		return false
	}
}

// PipelineState is the session-wide configuration of one command build.
type PipelineState struct {
	DecoderMode HardwareAccel
	EncoderMode HardwareAccel
	VaapiDevice string
	VaapiDriver string

	Start     time.Duration
	Finish    time.Duration
	PtsOffset time.Duration

	DoNotMapMetadata bool
	ServiceProvider  string
	ServiceName      string

	OutputFormat       types.OutputFormat
	HLSPlaylistPath    string
	HLSSegmentTemplate string
	HLSSegmentSeconds  int
	HLSListSize        int

	ThreadCount      int
	TonemapHDR       bool
	TonemapAlgorithm string
	Realtime         bool
}

// Duration returns Finish-Start when both bound the request, else zero.
func (p PipelineState) Duration() time.Duration {
	if p.Finish > p.Start {
		return p.Finish - p.Start
	}
	return 0
}
