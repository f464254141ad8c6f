// Package hardware detects which acceleration backends the installed ffmpeg
// offers and keeps the result for the pipeline builder.
package hardware

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/encoder"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// DefaultFFmpegPath is used when no binary is configured.
const DefaultFFmpegPath = "ffmpeg"

// Capabilities is the accelerator inventory of one ffmpeg binary. A value is
// never modified after it is published.
type Capabilities struct {
	Available []state.HardwareAccel `json:"available" doc:"Accelerators reported by ffmpeg, in preference order"`
	Preferred state.HardwareAccel   `json:"preferred" example:"vaapi" doc:"Accelerator new pipelines use"`

	// Encoders maps a codec token (h264, hevc, ...) to the encoder names ffmpeg lists for it.
	Encoders map[string][]string `json:"encoders" doc:"Encoder names by codec"`
	// Decoders maps an accelerator to the hwaccel methods that enable it.
	Decoders map[string][]string `json:"decoders" doc:"hwaccel methods by accelerator"`

	FFmpegPath  string    `json:"ffmpeg_path"`
	FFprobePath string    `json:"ffprobe_path"`
	Platform    string    `json:"platform" example:"linux"`
	DetectedAt  time.Time `json:"detected_at"`
	Error       string    `json:"error,omitempty" doc:"Detection failure; the inventory is software only"`
}

// SoftwareOnlyCapabilities returns an inventory with no accelerators.
func SoftwareOnlyCapabilities(ffmpegPath, platform string) *Capabilities {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	return &Capabilities{
		Available:   []state.HardwareAccel{},
		Preferred:   state.HardwareNone,
		Encoders:    map[string][]string{},
		Decoders:    map[string][]string{},
		FFmpegPath:  ffmpegPath,
		FFprobePath: ProbePath(ffmpegPath),
		Platform:    platform,
	}
}

// Has reports whether accel was detected. HardwareNone is always present.
func (c *Capabilities) Has(accel state.HardwareAccel) bool {
	if !accel.IsHardware() {
		return true
	}
	if c == nil {
		return false
	}
	return slices.Contains(c.Available, accel)
}

// EncoderFor returns the hardware encoder name for codec on accel when both
// the accelerator and the concrete encoder were detected.
func (c *Capabilities) EncoderFor(codec string, accel state.HardwareAccel) (string, bool) {
	if c == nil || !accel.IsHardware() || !c.Has(accel) {
		return "", false
	}
	codec = encoder.NormalizeVideoCodec(codec)
	name := encoder.HardwareName(codec, encoder.Family(accel))
	if slices.Contains(c.Encoders[codec], name) {
		return name, true
	}
	return "", false
}

// SoftwareOnly reports whether no accelerator is usable.
func (c *Capabilities) SoftwareOnly() bool {
	return c == nil || len(c.Available) == 0
}

// AvailableNames returns Available as strings.
func (c *Capabilities) AvailableNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.Available))
	for i, a := range c.Available {
		names[i] = string(a)
	}
	return names
}

// ProbePath derives the ffprobe binary that ships next to ffmpegPath.
func ProbePath(ffmpegPath string) string {
	dir, base := filepath.Split(ffmpegPath)
	name := strings.Replace(base, "ffmpeg", "ffprobe", 1)
	if name == base {
		name = "ffprobe"
	}
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
