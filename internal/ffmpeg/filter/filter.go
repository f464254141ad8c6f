// Package filter implements the engine filter-graph stages and the chain that
// folds them over a FrameState.
package filter

import "github.com/smazurov/playoutnode/internal/ffmpeg/state"

// Kind identifies a filter variant.
type Kind int

const (
	KindScale Kind = iota
	KindPad
	KindCrop
	KindTonemap
	KindDeinterlace
	KindPixelFormat
	KindSampleAspectRatio
	KindHardwareUpload
	KindHardwareDownload
	KindRealtime
	KindWatermark
	KindAudioResample
	KindAudioPad
	KindLoudnorm
)

var kindNames = map[Kind]string{
	KindScale:             "scale",
	KindPad:               "pad",
	KindCrop:              "crop",
	KindTonemap:           "tonemap",
	KindDeinterlace:       "deinterlace",
	KindPixelFormat:       "pixel_format",
	KindSampleAspectRatio: "sample_aspect_ratio",
	KindHardwareUpload:    "hardware_upload",
	KindHardwareDownload:  "hardware_download",
	KindRealtime:          "realtime",
	KindWatermark:         "watermark",
	KindAudioResample:     "audio_resample",
	KindAudioPad:          "audio_pad",
	KindLoudnorm:          "loudnorm",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Filter is one stage of a filter graph. The set of implementations is
// closed to this package.
type Filter interface {
	Kind() Kind
	// Applies reports whether the filter has any effect on fs. Inapplicable
	// filters are skipped by the chain.
	Applies(fs state.FrameState) bool
	// Requires declares where input frames must live.
	Requires() state.LocationRequirement
	// Apply returns the filter-graph fragment and the state after the stage.
	Apply(fs state.FrameState) (string, state.FrameState)

	sealed()
}

// Separator joins stages within one filter-graph branch.
const Separator = ","
