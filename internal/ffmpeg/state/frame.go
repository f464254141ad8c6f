package state

import (
	"strings"

	"github.com/smazurov/playoutnode/internal/types"
)

// MemoryLocation is where decoded frames currently live.
type MemoryLocation int

const (
	Software MemoryLocation = iota
	Hardware
)

func (l MemoryLocation) String() string {
	if l == Hardware {
		return "hardware"
	}
	return "software"
}

// LocationRequirement declares where a stage expects its input frames.
type LocationRequirement int

const (
	AnyLocation LocationRequirement = iota
	SoftwareOnly
	HardwareOnly
)

// Satisfied reports whether frames at loc may enter a stage with this requirement.
func (r LocationRequirement) Satisfied(loc MemoryLocation) bool {
	switch r {
	case SoftwareOnly:
		return loc == Software
	case HardwareOnly:
		return loc == Hardware
	default:
		return true
	}
}

// Common pixel formats.
const (
	PixelFormatYUV420P   = "yuv420p"
	PixelFormatYUV420P10 = "yuv420p10le"
	PixelFormatNV12      = "nv12"
	PixelFormatP010      = "p010le"
	PixelFormatVAAPI     = "vaapi"
	PixelFormatCUDA      = "cuda"
	PixelFormatQSV       = "qsv"
)

const (
	DefaultAudioChannels  = 2
	DefaultAudioFrequency = 48000
)

var hdrTransfers = map[string]bool{
	"smpte2084":    true,
	"arib-std-b67": true,
}

// FrameState is an immutable snapshot of a stream's properties at one point
// in a filter/encoder chain. Use With to derive a modified copy.
type FrameState struct {
	ScaledSize  FrameSize
	PaddedSize  FrameSize
	CroppedSize FrameSize

	PixelFormat string
	Location    MemoryLocation
	VideoCodec  string
	Interlaced  bool
	Anamorphic  bool

	ColorRange     string
	ColorSpace     string
	ColorTransfer  string
	ColorPrimaries string

	AudioCodec      string
	AudioChannels   int
	AudioSampleRate int
}

// Option overrides one field of a FrameState.
type Option func(*FrameState)

// New returns a FrameState with audio defaults applied.
func New(opts ...Option) FrameState {
	fs := FrameState{
		AudioChannels:   DefaultAudioChannels,
		AudioSampleRate: DefaultAudioFrequency,
	}
	return fs.With(opts...)
}

// FromStream derives the initial state of a build from probed source properties.
func FromStream(in types.StreamInfo) FrameState {
	fs := New(
		WithPixelFormat(in.PixelFormat),
		WithVideoCodec(in.VideoCodec),
		WithInterlaced(in.Interlaced()),
		WithAnamorphic(in.Anamorphic()),
		WithColor(in.ColorRange, in.ColorSpace, in.ColorTransfer, in.ColorPrimaries),
		WithAudioCodec(in.AudioCodec),
	)
	if size, err := NewFrameSize(in.Width, in.Height); err == nil {
		fs.ScaledSize = size
	}
	if in.AudioChannels > 0 {
		fs.AudioChannels = in.AudioChannels
	}
	if in.AudioSampleRate > 0 {
		fs.AudioSampleRate = in.AudioSampleRate
	}
	return fs
}

// With returns a copy of fs with opts applied. fs itself is never modified.
func (fs FrameState) With(opts ...Option) FrameState {
	next := fs
	for _, opt := range opts {
		opt(&next)
	}
	return next
}

// IsHDR reports whether the color transfer is a known HDR curve.
func (fs FrameState) IsHDR() bool {
	return hdrTransfers[strings.ToLower(fs.ColorTransfer)]
}

// BitDepth returns 10 for high bit depth pixel formats and 8 otherwise.
func (fs FrameState) BitDepth() int {
	pf := strings.ToLower(fs.PixelFormat)
	if strings.Contains(pf, "10le") || strings.Contains(pf, "10be") || strings.HasPrefix(pf, "p010") {
		return 10
	}
	return 8
}

// CurrentSize is the most recent geometry: cropped, else padded, else scaled.
func (fs FrameState) CurrentSize() FrameSize {
	switch {
	case !fs.CroppedSize.IsZero():
		return fs.CroppedSize
	case !fs.PaddedSize.IsZero():
		return fs.PaddedSize
	default:
		return fs.ScaledSize
	}
}

func WithScaledSize(s FrameSize) Option  { return func(fs *FrameState) { fs.ScaledSize = s } }
func WithPaddedSize(s FrameSize) Option  { return func(fs *FrameState) { fs.PaddedSize = s } }
func WithCroppedSize(s FrameSize) Option { return func(fs *FrameState) { fs.CroppedSize = s } }
func WithPixelFormat(pf string) Option   { return func(fs *FrameState) { fs.PixelFormat = pf } }
func WithLocation(l MemoryLocation) Option {
	return func(fs *FrameState) { fs.Location = l }
}
func WithVideoCodec(c string) Option { return func(fs *FrameState) { fs.VideoCodec = c } }
func WithInterlaced(v bool) Option   { return func(fs *FrameState) { fs.Interlaced = v } }
func WithAnamorphic(v bool) Option   { return func(fs *FrameState) { fs.Anamorphic = v } }
func WithAudioCodec(c string) Option { return func(fs *FrameState) { fs.AudioCodec = c } }

// WithColor replaces all four color tokens at once.
func WithColor(colorRange, space, transfer, primaries string) Option {
	return func(fs *FrameState) {
		fs.ColorRange = colorRange
		fs.ColorSpace = space
		fs.ColorTransfer = transfer
		fs.ColorPrimaries = primaries
	}
}

// WithAudioFormat sets channel count and sample rate; zero values keep the current ones.
func WithAudioFormat(channels, sampleRate int) Option {
	return func(fs *FrameState) {
		if channels > 0 {
			fs.AudioChannels = channels
		}
		if sampleRate > 0 {
			fs.AudioSampleRate = sampleRate
		}
	}
}
