package filter

import (
	"fmt"
	"strings"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// Output labels used by the complex graph form.
const (
	VideoOutLabel = "[vout]"
	AudioOutLabel = "[aout]"
)

// Chain is an ordered set of video and audio filters. Watermark, when set,
// switches rendering to the complex graph form.
type Chain struct {
	Video     []Filter
	Audio     []Filter
	Watermark *Watermark
	// AudioStream is the index of the selected input audio stream.
	AudioStream int
}

// Step records one applied filter.
type Step struct {
	Kind     Kind
	Requires state.LocationRequirement
	Fragment string
	Before   state.FrameState
	After    state.FrameState
}

// Result is a rendered chain.
type Result struct {
	// VideoFilter and AudioFilter are the simple per-track forms (-vf, -af).
	// Both are empty when ComplexFilter is set.
	VideoFilter   string
	AudioFilter   string
	ComplexFilter string
	// VideoMap and AudioMap are the -map arguments for the output.
	VideoMap string
	AudioMap string
	Final    state.FrameState
	Steps    []Step
}

// Render folds every applicable filter over initial and joins the fragments.
func (c Chain) Render(initial state.FrameState) Result {
	res := Result{
		VideoMap: "0:v:0",
		AudioMap: fmt.Sprintf("0:a:%d?", c.AudioStream),
	}

	pre, post := c.Video, []Filter(nil)
	if c.Watermark != nil {
		pre, post = splitTrailingUpload(c.Video)
	}

	cur := initial
	var videoFrags []string
	videoFrags, cur = c.fold(&res, pre, cur)

	if c.Watermark == nil || !c.Watermark.Applies(cur) {
		tail, next := c.fold(&res, post, cur)
		videoFrags = append(videoFrags, tail...)
		cur = next
		res.VideoFilter = strings.Join(videoFrags, Separator)

		audioFrags, final := c.fold(&res, c.Audio, cur)
		res.AudioFilter = strings.Join(audioFrags, Separator)
		res.Final = final
		return res
	}

	overlay, afterOverlay := c.Watermark.Apply(cur)
	res.Steps = append(res.Steps, Step{
		Kind:     KindWatermark,
		Requires: c.Watermark.Requires(),
		Fragment: overlay,
		Before:   cur,
		After:    afterOverlay,
	})
	tail, cur := c.fold(&res, post, afterOverlay)

	var graph []string
	mainLabel := "[0:v]"
	if len(videoFrags) > 0 {
		graph = append(graph, "[0:v]"+strings.Join(videoFrags, Separator)+"[vmain]")
		mainLabel = "[vmain]"
	}
	graph = append(graph, "[1:v]"+c.Watermark.Image()+"[wm]")
	graph = append(graph, mainLabel+"[wm]"+strings.Join(append([]string{overlay}, tail...), Separator)+VideoOutLabel)
	res.VideoMap = VideoOutLabel

	audioFrags, final := c.fold(&res, c.Audio, cur)
	if len(audioFrags) > 0 {
		graph = append(graph, fmt.Sprintf("[0:a:%d]", c.AudioStream)+strings.Join(audioFrags, Separator)+AudioOutLabel)
		res.AudioMap = AudioOutLabel
	}

	res.ComplexFilter = strings.Join(graph, ";")
	res.Final = final
	return res
}

func (c Chain) fold(res *Result, filters []Filter, cur state.FrameState) ([]string, state.FrameState) {
	var frags []string
	for _, f := range filters {
		if !f.Applies(cur) {
			continue
		}
		frag, next := f.Apply(cur)
		res.Steps = append(res.Steps, Step{
			Kind:     f.Kind(),
			Requires: f.Requires(),
			Fragment: frag,
			Before:   cur,
			After:    next,
		})
		frags = append(frags, frag)
		cur = next
	}
	return frags, cur
}

// splitTrailingUpload separates a final hardware upload so an overlay can be
// placed before it.
func splitTrailingUpload(filters []Filter) ([]Filter, []Filter) {
	if n := len(filters); n > 0 {
		if _, ok := filters[n-1].(HardwareUpload); ok {
			return filters[:n-1], filters[n-1:]
		}
	}
	return filters, nil
}
