package filter

import (
	"fmt"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// AudioResample keeps audio in sync with video timestamps.
type AudioResample struct {
	SampleRate int
}

func (AudioResample) Kind() Kind                          { return KindAudioResample }
func (AudioResample) Requires() state.LocationRequirement { return state.AnyLocation }
func (AudioResample) Applies(state.FrameState) bool       { return true }
func (AudioResample) sealed()                             {}

func (f AudioResample) Apply(fs state.FrameState) (string, state.FrameState) {
	frag := "aresample=async=1:first_pts=0"
	if f.SampleRate > 0 {
		frag += fmt.Sprintf(":osr=%d", f.SampleRate)
	}
	return frag, fs.With(state.WithAudioFormat(0, f.SampleRate))
}

// AudioPad extends audio with silence to Duration.
type AudioPad struct {
	Duration time.Duration
}

func (AudioPad) Kind() Kind                          { return KindAudioPad }
func (AudioPad) Requires() state.LocationRequirement { return state.AnyLocation }
func (AudioPad) sealed()                             {}

func (f AudioPad) Applies(state.FrameState) bool {
	return f.Duration > 0
}

func (f AudioPad) Apply(fs state.FrameState) (string, state.FrameState) {
	return fmt.Sprintf("apad=whole_dur=%dms", f.Duration.Milliseconds()), fs
}

// Loudnorm applies EBU R128 loudness normalization.
type Loudnorm struct{}

func (Loudnorm) Kind() Kind                          { return KindLoudnorm }
func (Loudnorm) Requires() state.LocationRequirement { return state.AnyLocation }
func (Loudnorm) Applies(state.FrameState) bool       { return true }
func (Loudnorm) sealed()                             {}

func (Loudnorm) Apply(fs state.FrameState) (string, state.FrameState) {
	return "loudnorm=I=-16:TP=-1.5:LRA=11", fs
}
