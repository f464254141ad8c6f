package encoder

import (
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// CopyVideo passes the source video through without re-encoding.
type CopyVideo struct {
	SourceCodec string
}

func (CopyVideo) Name() string                        { return CodecCopy }
func (CopyVideo) Kind() StreamKind                    { return StreamVideo }
func (CopyVideo) Family() Family                      { return FamilyCopy }
func (CopyVideo) InputLocation() state.MemoryLocation { return state.Software }
func (CopyVideo) sealed()                             {}

func (e CopyVideo) Apply(fs state.FrameState) state.FrameState {
	return fs.With(state.WithVideoCodec(NormalizeVideoCodec(e.SourceCodec)))
}

// Args always carries a parameter-set bitstream filter so in-band SPS/PPS
// survive container changes.
func (e CopyVideo) Args(*types.QualityParams) ([]string, error) {
	return []string{"-c:v", CodecCopy, "-bsf:v", e.BitstreamFilter()}, nil
}

// BitstreamFilter returns the annex-b conversion for the source codec
// followed by extradata re-emission.
func (e CopyVideo) BitstreamFilter() string {
	switch NormalizeVideoCodec(e.SourceCodec) {
	case CodecH264:
		return "h264_mp4toannexb,dump_extra"
	case CodecHEVC:
		return "hevc_mp4toannexb,dump_extra"
	default:
		return "dump_extra"
	}
}

// CopyAudio passes the selected audio stream through.
type CopyAudio struct{}

func (CopyAudio) Name() string                                { return CodecCopy }
func (CopyAudio) Kind() StreamKind                            { return StreamAudio }
func (CopyAudio) Family() Family                              { return FamilyCopy }
func (CopyAudio) InputLocation() state.MemoryLocation         { return state.Software }
func (CopyAudio) Apply(fs state.FrameState) state.FrameState  { return fs }
func (CopyAudio) Args(*types.QualityParams) ([]string, error) { return []string{"-c:a", CodecCopy}, nil }
func (CopyAudio) sealed()                                     {}

// CopySubtitle passes subtitle streams through.
type CopySubtitle struct{}

func (CopySubtitle) Name() string                                { return CodecCopy }
func (CopySubtitle) Kind() StreamKind                            { return StreamSubtitle }
func (CopySubtitle) Family() Family                              { return FamilyCopy }
func (CopySubtitle) InputLocation() state.MemoryLocation         { return state.Software }
func (CopySubtitle) Apply(fs state.FrameState) state.FrameState  { return fs }
func (CopySubtitle) Args(*types.QualityParams) ([]string, error) { return []string{"-c:s", CodecCopy}, nil }
func (CopySubtitle) sealed()                                     {}
