package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/playoutnode/internal/logging"
	"github.com/smazurov/playoutnode/internal/metrics"
	"github.com/smazurov/playoutnode/internal/process"
	"github.com/smazurov/playoutnode/internal/types"
	"github.com/spf13/afero"
)

// DefaultProbeTimeout bounds one ffprobe run.
const DefaultProbeTimeout = 30 * time.Second

// Probe failure reasons reported to metrics.
const (
	probeUnreadable = "unreadable"
	probeTimeout    = "timeout"
	probeExec       = "exec"
	probeDecode     = "decode"
)

// Prober reads stream properties with ffprobe.
type Prober struct {
	Runner  process.Runner
	Timeout time.Duration
	Fs      afero.Fs
	Logger  logging.Logger
}

// NewProber returns a Prober that executes ffprobe against the OS filesystem.
func NewProber() *Prober {
	return &Prober{
		Runner:  process.Exec{},
		Timeout: DefaultProbeTimeout,
		Fs:      afero.NewOsFs(),
		Logger:  logging.GetLogger("probe"),
	}
}

// Probe describes the media at path. Local files are checked before ffprobe
// runs. Any failure returns a zero StreamInfo and an error wrapping
// ErrMediaUnreadable or ErrProbeFailed.
func (p *Prober) Probe(ctx context.Context, ffprobePath, path string) (types.StreamInfo, error) {
	start := time.Now()
	kind, network := ClassifySource(path)

	if !network {
		if err := p.checkLocal(path); err != nil {
			metrics.ObserveProbe(time.Since(start), probeUnreadable)
			return types.StreamInfo{}, err
		}
	}

	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := p.Runner.Run(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path)
	if err != nil {
		reason := probeExec
		if errors.Is(err, context.DeadlineExceeded) {
			reason = probeTimeout
		}
		metrics.ObserveProbe(time.Since(start), reason)
		p.logger().Debug("ffprobe failed", "path", path, "error", err)
		return types.StreamInfo{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, path, err)
	}

	info, err := parseProbe(out)
	if err != nil {
		metrics.ObserveProbe(time.Since(start), probeDecode)
		return types.StreamInfo{}, fmt.Errorf("%w: %s: %w", ErrProbeFailed, path, err)
	}
	info.Path = path
	info.SourceKind = kind
	info.IsNetwork = network
	info.IsLive = network && (isLiveKind(kind) || info.Duration == 0)

	metrics.ObserveProbe(time.Since(start), "")
	p.logger().Debug("Probed source",
		"path", path,
		"format", info.FormatName,
		"video", info.VideoCodec,
		"audio", info.AudioCodec,
		"duration", info.Duration)
	return info, nil
}

func (p *Prober) checkLocal(path string) error {
	fs := p.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	name := strings.TrimPrefix(path, "file://")
	fi, err := fs.Stat(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMediaUnreadable, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrMediaUnreadable, name)
	}
	return nil
}

func (p *Prober) logger() logging.Logger {
	if p.Logger == nil {
		return logging.GetLogger("probe")
	}
	return p.Logger
}

// ClassifySource derives the source kind from a path or URL. The second
// return reports whether the source is read over the network.
func ClassifySource(path string) (types.SourceKind, bool) {
	u, err := url.Parse(path)
	if err != nil || u.Scheme == "" || u.Scheme == "file" || len(u.Scheme) == 1 {
		return types.SourceLocal, false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if isMediaServer(u) {
			return types.SourceMediaServer, true
		}
		return types.SourceHTTP, true
	case "rtsp", "rtsps":
		return types.SourceRTSP, true
	case "rtmp", "rtmps":
		return types.SourceRTMP, true
	case "srt":
		return types.SourceSRT, true
	case "udp", "rtp":
		return types.SourceUDP, true
	default:
		return types.SourceHTTP, true
	}
}

func isMediaServer(u *url.URL) bool {
	if strings.Contains(u.Path, "/library/parts/") || strings.Contains(u.Path, "/Videos/") {
		return true
	}
	q := u.Query()
	return q.Has("X-Plex-Token") || q.Has("api_key")
}

func isLiveKind(kind types.SourceKind) bool {
	switch kind {
	case types.SourceRTSP, types.SourceRTMP, types.SourceSRT, types.SourceUDP:
		return true
	default:
		return false
	}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType          string `json:"codec_type"`
	CodecName          string `json:"codec_name"`
	Profile            string `json:"profile"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	PixFmt             string `json:"pix_fmt"`
	FieldOrder         string `json:"field_order"`
	SampleAspectRatio  string `json:"sample_aspect_ratio"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
	ColorRange         string `json:"color_range"`
	ColorSpace         string `json:"color_space"`
	ColorTransfer      string `json:"color_transfer"`
	ColorPrimaries     string `json:"color_primaries"`
	RFrameRate         string `json:"r_frame_rate"`
	AvgFrameRate       string `json:"avg_frame_rate"`
	Channels           int    `json:"channels"`
	SampleRate         string `json:"sample_rate"`
	Disposition        struct {
		Default     int `json:"default"`
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

type probeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// parseProbe converts ffprobe JSON into StreamInfo. The first video stream
// that is not cover art is used; the default audio stream is selected when
// one is flagged.
func parseProbe(data []byte) (types.StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return types.StreamInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 && out.Format.FormatName == "" {
		return types.StreamInfo{}, errors.New("ffprobe reported no streams")
	}

	info := types.StreamInfo{
		FormatName: out.Format.FormatName,
		Duration:   parseSeconds(out.Format.Duration),
	}
	info.Size, _ = strconv.ParseInt(out.Format.Size, 10, 64)
	info.BitRate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	video, audio := -1, -1
	audioCount := 0
	for i, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if s.Disposition.AttachedPic == 1 {
				continue
			}
			info.VideoStreams++
			if video < 0 {
				video = i
			}
		case "audio":
			if audio < 0 || (s.Disposition.Default == 1 && out.Streams[audio].Disposition.Default != 1) {
				audio = i
				info.AudioStreamIndex = audioCount
			}
			audioCount++
		}
	}
	info.AudioStreams = audioCount

	if video >= 0 {
		v := out.Streams[video]
		info.VideoCodec = v.CodecName
		info.VideoProfile = v.Profile
		info.Width = v.Width
		info.Height = v.Height
		info.PixelFormat = v.PixFmt
		info.FieldOrder = v.FieldOrder
		info.SampleAspectRatio = v.SampleAspectRatio
		info.DisplayAspectRatio = v.DisplayAspectRatio
		info.ColorRange = v.ColorRange
		info.ColorSpace = v.ColorSpace
		info.ColorTransfer = v.ColorTransfer
		info.ColorPrimaries = v.ColorPrimaries
		info.FrameRate = parseRate(v.AvgFrameRate)
		if info.FrameRate == 0 {
			info.FrameRate = parseRate(v.RFrameRate)
		}
	}
	if audio >= 0 {
		a := out.Streams[audio]
		info.AudioCodec = a.CodecName
		info.AudioChannels = a.Channels
		info.AudioSampleRate, _ = strconv.Atoi(a.SampleRate)
	}
	return info, nil
}

// parseRate parses "30000/1001" or "25" into frames per second.
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return time.Duration(math.Round(f * float64(time.Second)))
}
