package filter

import (
	"fmt"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// Realtime paces frame output to wall clock.
type Realtime struct{}

func (Realtime) Kind() Kind                          { return KindRealtime }
func (Realtime) Requires() state.LocationRequirement { return state.AnyLocation }
func (Realtime) Applies(state.FrameState) bool       { return true }
func (Realtime) sealed()                             {}

func (Realtime) Apply(fs state.FrameState) (string, state.FrameState) {
	return "realtime", fs
}

// Watermark composites a secondary image input over the video. It is only
// rendered in the complex filter-graph form.
type Watermark struct {
	Settings types.WatermarkSettings
	Frame    state.FrameSize
}

func (Watermark) Kind() Kind                          { return KindWatermark }
func (Watermark) Requires() state.LocationRequirement { return state.SoftwareOnly }
func (Watermark) sealed()                             {}

func (w Watermark) Applies(state.FrameState) bool {
	return w.Settings.Path != ""
}

// Image returns the fragment applied to the watermark input before overlay.
func (w Watermark) Image() string {
	frag := ""
	if w.Settings.WidthPercent > 0 && w.Frame.Width > 0 {
		width := even(w.Frame.Width * w.Settings.WidthPercent / 100)
		frag = fmt.Sprintf("scale=%d:-1,", width)
	}
	frag += "format=yuva420p"
	if w.Settings.Opacity > 0 && w.Settings.Opacity < 1 {
		frag += fmt.Sprintf(",colorchannelmixer=aa=%.2f", w.Settings.Opacity)
	}
	return frag
}

// Apply returns the overlay expression positioned per Settings.Position.
func (w Watermark) Apply(fs state.FrameState) (string, state.FrameState) {
	mx, my := 0, 0
	if w.Settings.MarginPercent > 0 {
		mx = w.Frame.Width * w.Settings.MarginPercent / 100
		my = w.Frame.Height * w.Settings.MarginPercent / 100
	}

	var x, y string
	switch w.Settings.Position {
	case "top-left":
		x, y = fmt.Sprintf("%d", mx), fmt.Sprintf("%d", my)
	case "top-right":
		x, y = fmt.Sprintf("W-w-%d", mx), fmt.Sprintf("%d", my)
	case "bottom-left":
		x, y = fmt.Sprintf("%d", mx), fmt.Sprintf("H-h-%d", my)
	default:
		x, y = fmt.Sprintf("W-w-%d", mx), fmt.Sprintf("H-h-%d", my)
	}
	return fmt.Sprintf("overlay=x=%s:y=%s", x, y), fs.With(state.WithPixelFormat(state.PixelFormatYUV420P))
}
