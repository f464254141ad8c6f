package hardware

import (
	"bufio"
	"context"
	"regexp"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/encoder"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/smazurov/playoutnode/internal/metrics"
	"github.com/smazurov/playoutnode/internal/process"
)

// DefaultTimeout bounds one detection run.
const DefaultTimeout = 5 * time.Second

// encoderLine matches one row of `ffmpeg -encoders`, e.g.
// " V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)".
// The six capability columns are letters or dots; newer builds add columns
// (X experimental, B draw_horiz_band, D direct rendering) so any letter is accepted.
var encoderLine = regexp.MustCompile(`^\s*([A-Za-z.]{6})\s+(\S+)(?:\s+.*)?$`)

// hwaccelTokens maps tokens found in `ffmpeg -hwaccels` to accelerators.
var hwaccelTokens = map[string]state.HardwareAccel{
	"cuda":         state.HardwareNvenc,
	"nvenc":        state.HardwareNvenc,
	"qsv":          state.HardwareQsv,
	"vaapi":        state.HardwareVaapi,
	"videotoolbox": state.HardwareVideoToolbox,
	"amf":          state.HardwareAmf,
	"rkmpp":        state.HardwareRkmpp,
	"v4l2m2m":      state.HardwareV4l2m2m,
}

// softwareEncoderCodecs groups software encoder names under their codec.
var softwareEncoderCodecs = map[string]string{
	"libx264":    encoder.CodecH264,
	"libx265":    encoder.CodecHEVC,
	"libsvtav1":  encoder.CodecAV1,
	"libaom-av1": encoder.CodecAV1,
	"librav1e":   encoder.CodecAV1,
	"libvpx-vp9": encoder.CodecVP9,
	"mpeg2video": encoder.CodecMPEG2,
}

// Detector asks an ffmpeg binary which accelerators it supports.
type Detector struct {
	Runner   process.Runner
	Timeout  time.Duration
	Platform string // empty resolves the host platform on each run
	Logger   logging.Logger

	warned atomic.Bool
}

// NewDetector returns a Detector that runs real subprocesses.
func NewDetector() *Detector {
	return &Detector{
		Runner:  process.Exec{},
		Timeout: DefaultTimeout,
		Logger:  logging.GetLogger("hardware"),
	}
}

// Detect lists accelerators and encoders of ffmpegPath and resolves the
// preferred accelerator under override. It never fails: any exec error,
// timeout or non-zero exit yields the software-only inventory with Error set.
func (d *Detector) Detect(ctx context.Context, ffmpegPath, override string) *Capabilities {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	platform := d.Platform
	if platform == "" {
		platform = Platform(ctx)
	}

	start := time.Now()
	caps, err := d.detect(ctx, ffmpegPath, platform)
	elapsed := time.Since(start)
	metrics.ObserveDetection(elapsed, err != nil)

	if err != nil {
		caps = SoftwareOnlyCapabilities(ffmpegPath, platform)
		caps.Error = err.Error()
		if d.warned.CompareAndSwap(false, true) {
			d.logger().Warn("Hardware detection failed, using software encoding", "ffmpeg", ffmpegPath, "error", err)
		} else {
			d.logger().Debug("Hardware detection failed again", "ffmpeg", ffmpegPath, "error", err)
		}
	} else {
		d.warned.Store(false)
	}

	caps.Preferred = ResolvePreferred(caps.Available, override, platform)
	caps.DetectedAt = time.Now()
	if !IsAuto(override) && caps.Preferred == state.HardwareNone {
		if accel, ok := state.ParseHardwareAccel(override); !ok || accel.IsHardware() {
			d.logger().Warn("Requested hardware override not available, using software",
				"override", override, "available", caps.AvailableNames())
		}
	}

	d.logger().Info("Hardware capabilities detected",
		"available", caps.AvailableNames(),
		"preferred", caps.Preferred,
		"platform", platform,
		"duration", elapsed)
	return caps
}

func (d *Detector) detect(ctx context.Context, ffmpegPath, platform string) (*Capabilities, error) {
	runner := d.Runner
	if runner == nil {
		runner = process.Exec{}
	}

	hwaccels, err := runner.Run(ctx, ffmpegPath, "-hide_banner", "-hwaccels")
	if err != nil {
		return nil, err
	}
	encoders, err := runner.Run(ctx, ffmpegPath, "-hide_banner", "-encoders")
	if err != nil {
		return nil, err
	}

	caps := SoftwareOnlyCapabilities(ffmpegPath, platform)
	caps.Decoders = parseHWAccels(string(hwaccels))
	caps.Encoders = parseEncoders(string(encoders))
	caps.Available = availableAccels(caps.Decoders, caps.Encoders, platform)
	return caps, nil
}

// parseHWAccels groups the methods listed by `ffmpeg -hwaccels` by accelerator.
func parseHWAccels(output string) map[string][]string {
	decoders := make(map[string][]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		method := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if method == "" || strings.Contains(method, ":") {
			continue
		}
		accel, ok := hwaccelTokens[method]
		if !ok {
			continue
		}
		if !slices.Contains(decoders[string(accel)], method) {
			decoders[string(accel)] = append(decoders[string(accel)], method)
		}
	}
	return decoders
}

// parseEncoders collects video encoder names from `ffmpeg -encoders` grouped
// by codec token.
func parseEncoders(output string) map[string][]string {
	encoders := make(map[string][]string)
	scanner := bufio.NewScanner(strings.NewReader(output))
	started := false
	for scanner.Scan() {
		line := scanner.Text()
		if !started {
			// The legend ends with a " ------" separator row.
			if strings.HasPrefix(strings.TrimSpace(line), "------") {
				started = true
			}
			continue
		}
		m := encoderLine.FindStringSubmatch(line)
		if len(m) != 3 || !strings.EqualFold(m[1][:1], "V") {
			continue
		}
		name := strings.ToLower(m[2])
		codec, ok := encoderCodec(name)
		if !ok {
			continue
		}
		if !slices.Contains(encoders[codec], name) {
			encoders[codec] = append(encoders[codec], name)
		}
	}
	return encoders
}

// encoderCodec maps an encoder name to its codec token.
func encoderCodec(name string) (string, bool) {
	if codec, ok := softwareEncoderCodecs[name]; ok {
		return codec, true
	}
	if _, ok := encoderAccel(name); !ok {
		return "", false
	}
	prefix, _, _ := strings.Cut(name, "_")
	switch prefix {
	case "h264":
		return encoder.CodecH264, true
	case "hevc":
		return encoder.CodecHEVC, true
	case "av1":
		return encoder.CodecAV1, true
	case "vp9":
		return encoder.CodecVP9, true
	case "mpeg2":
		return encoder.CodecMPEG2, true
	default:
		return "", false
	}
}

// encoderAccel finds the accelerator token inside a hardware encoder name
// such as "h264_nvenc" or "hevc_vaapi". Matching is case-insensitive.
func encoderAccel(name string) (state.HardwareAccel, bool) {
	lower := strings.ToLower(name)
	_, rest, ok := strings.Cut(lower, "_")
	if !ok {
		return "", false
	}
	for token, accel := range hwaccelTokens {
		if strings.Contains(rest, token) {
			return accel, true
		}
	}
	return "", false
}

// availableAccels returns the accelerators present either as an hwaccel
// method or as an encoder suffix, in auto preference order.
func availableAccels(decoders, encoders map[string][]string, platform string) []state.HardwareAccel {
	present := make(map[state.HardwareAccel]bool)
	for accel := range decoders {
		present[state.HardwareAccel(accel)] = true
	}
	for _, names := range encoders {
		for _, name := range names {
			if accel, ok := encoderAccel(name); ok {
				present[accel] = true
			}
		}
	}

	available := []state.HardwareAccel{}
	for _, accel := range state.AllHardwareAccels {
		if !present[accel] {
			continue
		}
		// videotoolbox only exists on darwin builds; ignore a stray token elsewhere.
		if accel == state.HardwareVideoToolbox && platform != "darwin" {
			continue
		}
		available = append(available, accel)
	}
	return available
}

func (d *Detector) logger() logging.Logger {
	if d.Logger == nil {
		return logging.GetLogger("hardware")
	}
	return d.Logger
}
