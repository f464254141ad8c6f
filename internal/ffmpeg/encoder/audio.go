package encoder

import (
	"strconv"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// SoftwareAudio encodes audio on the CPU. Zero Bitrate, Channels or
// SampleRate leave the engine defaults.
type SoftwareAudio struct {
	Codec      string
	Bitrate    int // kbps
	Channels   int
	SampleRate int
}

func (e SoftwareAudio) Name() string                      { return softwareAudio[e.Codec] }
func (SoftwareAudio) Kind() StreamKind                    { return StreamAudio }
func (SoftwareAudio) Family() Family                      { return FamilySoftware }
func (SoftwareAudio) InputLocation() state.MemoryLocation { return state.Software }
func (SoftwareAudio) sealed()                             {}

func (e SoftwareAudio) Apply(fs state.FrameState) state.FrameState {
	return fs.With(state.WithAudioCodec(e.Codec), state.WithAudioFormat(e.Channels, e.SampleRate))
}

// Args ignores q; audio quality is fixed by Bitrate.
func (e SoftwareAudio) Args(*types.QualityParams) ([]string, error) {
	args := []string{"-c:a", e.Name()}
	if e.Bitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(e.Bitrate)+"k")
	}
	if e.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(e.Channels))
	}
	if e.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(e.SampleRate))
	}
	return args, nil
}
