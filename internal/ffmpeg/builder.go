// Package ffmpeg renders transcoding commands. Build combines a probed
// source, an output profile and the detected accelerator inventory into one
// ffmpeg argument vector; Prober fills StreamInfo from ffprobe.
package ffmpeg

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/playoutnode/internal/ffmpeg/encoder"
	"github.com/smazurov/playoutnode/internal/ffmpeg/filter"
	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
)

const (
	// DefaultAudioBitrate applies when an encoded audio track has no bitrate.
	DefaultAudioBitrate = 192
	// DefaultGOPSeconds is the keyframe spacing used without an explicit interval.
	DefaultGOPSeconds = 2
	// DefaultGOP applies when neither output nor source frame rate is known.
	DefaultGOP = 60
)

// BuildOption adjusts one build.
type BuildOption func(*buildConfig)

type buildConfig struct {
	start        time.Duration
	finish       time.Duration
	ptsOffset    time.Duration
	overrides    []func(*state.PipelineState)
	inputOptions []OptionType
	channelID    string
}

// WithStart seeks the input to start.
func WithStart(start time.Duration) BuildOption {
	return func(c *buildConfig) { c.start = start }
}

// WithFinish stops reading at finish. Only effective when after start.
func WithFinish(finish time.Duration) BuildOption {
	return func(c *buildConfig) { c.finish = finish }
}

// WithPtsOffset shifts output timestamps by offset.
func WithPtsOffset(offset time.Duration) BuildOption {
	return func(c *buildConfig) { c.ptsOffset = offset }
}

// WithPipelineOverrides applies fn to the session state after defaults are
// derived from the output profile.
func WithPipelineOverrides(fn func(*state.PipelineState)) BuildOption {
	return func(c *buildConfig) {
		if fn != nil {
			c.overrides = append(c.overrides, fn)
		}
	}
}

// WithInputOptions replaces the default input tolerance options.
func WithInputOptions(opts []OptionType) BuildOption {
	return func(c *buildConfig) { c.inputOptions = opts }
}

// WithChannel tags the command with the channel it was built for.
func WithChannel(id string) BuildOption {
	return func(c *buildConfig) { c.channelID = id }
}

// Build renders the ffmpeg command that transcodes in to out using the
// accelerators in caps. A nil caps is treated as software only. Build has no
// side effects.
func Build(in types.StreamInfo, out types.OutputSettings, caps *hardware.Capabilities, opts ...BuildOption) (*Command, error) {
	cfg := buildConfig{inputOptions: DefaultInputOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if in.Path == "" {
		return nil, ErrMissingInput
	}
	if err := ValidateOptions(cfg.inputOptions); err != nil {
		return nil, err
	}
	if caps == nil {
		caps = hardware.SoftwareOnlyCapabilities("", "")
	}

	accel := caps.Preferred
	if !hardware.IsAuto(out.Hardware) {
		accel = hardware.ResolvePreferred(caps.Available, out.Hardware, caps.Platform)
	}
	if accel == "" {
		accel = state.HardwareNone
	}

	ps := newPipelineState(in, out, accel, cfg)
	for _, fn := range cfg.overrides {
		fn(&ps)
	}

	videoCodec := out.VideoCodec
	if videoCodec == "" {
		videoCodec = encoder.CodecH264
	}
	venc, err := encoder.SelectVideo(videoCodec, in.VideoCodec, ps.EncoderMode, caps)
	if err != nil {
		return nil, err
	}
	copyVideo := venc.Family() == encoder.FamilyCopy
	ps.EncoderMode = venc.Family().Accel()

	requested := ps.DecoderMode
	if copyVideo {
		ps.DecoderMode = state.HardwareNone
	} else {
		ps.DecoderMode = decodeAccel(requested, in)
	}
	if usesAccel(ps, state.HardwareVaapi) && ps.VaapiDevice == "" {
		ps.VaapiDevice = DefaultVaapiDevice
	}

	audioOn := hasAudio(in)
	var aenc encoder.Encoder
	if audioOn {
		bitrate := out.AudioBitrate
		if bitrate <= 0 {
			bitrate = DefaultAudioBitrate
		}
		aenc, err = encoder.SelectAudio(out.AudioCodec, bitrate, out.AudioChannels, out.AudioSampleRate)
		if err != nil {
			return nil, err
		}
		if out.NormalizeAudio && aenc.Family() == encoder.FamilyCopy {
			return nil, fmt.Errorf("%w: loudness normalization needs an encoded audio track, not copy", ErrInvalidOutput)
		}
	}

	initial := state.FromStream(in)
	if ps.DecoderMode.HoldsFramesInHardware() {
		initial = initial.With(state.WithLocation(state.Hardware))
	}

	chain := filter.Chain{AudioStream: in.AudioStreamIndex}
	watermark := !copyVideo && out.Watermark != nil && out.Watermark.Path != ""
	if !copyVideo {
		target := targetSize(out)
		chain.Video = filter.NewVideoChain(initial, filter.Plan{
			Target:           target,
			ScalingMode:      out.ScalingMode,
			PadColor:         out.PadColor,
			SAR:              in.SampleAspectRatio,
			Deinterlace:      out.Deinterlace,
			TonemapHDR:       ps.TonemapHDR,
			TonemapAlgorithm: ps.TonemapAlgorithm,
			Realtime:         ps.Realtime && in.Kind() != types.SourceLocal,
			Watermark:        watermark,
			DecodeAccel:      ps.DecoderMode,
			EncodeAccel:      ps.EncoderMode,
			EncoderInput:     venc.InputLocation(),
			PixelFormat:      encoderPixelFormat(venc, initial, ps.TonemapHDR),
		})
		if watermark {
			frame := target
			if frame.IsZero() {
				frame = initial.CurrentSize()
			}
			chain.Watermark = &filter.Watermark{Settings: *out.Watermark, Frame: frame}
		}
	}
	if audioOn && aenc.Family() != encoder.FamilyCopy {
		chain.Audio = filter.NewAudioChain(out.NormalizeAudio, out.PadAudioTo)
	}
	res := chain.Render(initial)

	args := []string{"-hide_banner", "-nostats", "-nostdin", "-loglevel", "error"}
	if ps.ThreadCount > 0 {
		args = append(args, "-threads", strconv.Itoa(ps.ThreadCount))
	}
	args = append(args, ApplyInputOptions(cfg.inputOptions)...)
	if ps.Realtime && in.Kind() == types.SourceLocal {
		args = append(args, "-re")
	}
	args = append(args, networkArgs(in)...)
	args = append(args, deviceArgs(ps)...)
	args = append(args, decodeArgs(ps, in)...)

	if ps.Start > 0 {
		args = append(args, "-ss", seconds(ps.Start))
	}
	if d := ps.Duration(); d > 0 {
		args = append(args, "-t", seconds(d))
	}
	args = append(args, "-i", in.Path)
	if chain.Watermark != nil {
		args = append(args, "-loop", "1", "-i", out.Watermark.Path)
	}
	args = append(args, ApplyOutputOptions(cfg.inputOptions)...)

	if res.ComplexFilter != "" {
		args = append(args, "-filter_complex", res.ComplexFilter)
	}
	args = append(args, "-map", res.VideoMap)
	if audioOn {
		args = append(args, "-map", res.AudioMap)
	}
	if res.VideoFilter != "" {
		args = append(args, "-vf", res.VideoFilter)
	}
	if res.AudioFilter != "" {
		args = append(args, "-af", res.AudioFilter)
	}

	quality := out.Quality
	if quality == nil {
		quality = types.BitrateParams(out.VideoBitrate, out.VideoMaxBitrate, out.VideoBufferSize)
	}
	vargs, err := venc.Args(quality)
	if err != nil {
		return nil, err
	}
	args = append(args, vargs...)
	if !copyVideo {
		args = append(args, videoTimingArgs(in, out, quality)...)
		if venc.Family() == encoder.FamilySoftware && res.Final.PixelFormat != "" {
			args = append(args, "-pix_fmt", res.Final.PixelFormat)
		}
	}

	final := venc.Apply(res.Final)
	if audioOn {
		aargs, err := aenc.Args(nil)
		if err != nil {
			return nil, err
		}
		args = append(args, aargs...)
		final = aenc.Apply(final)
	} else {
		args = append(args, "-an")
	}

	muxArgs, dest, err := containerArgs(ps, out)
	if err != nil {
		return nil, err
	}
	args = append(args, muxArgs...)
	args = append(args, dest)

	cmd := &Command{
		ID:             uuid.New(),
		Path:           caps.FFmpegPath,
		Args:           args,
		Env:            environment(ps),
		Pipeline:       ps,
		Final:          final,
		Steps:          res.Steps,
		VideoEncoder:   venc.Name(),
		Accel:          requested,
		EncoderFamily:  string(venc.Family()),
		SoftwareDecode: !copyVideo && requested.IsHardware() && !ps.DecoderMode.IsHardware(),
		ChannelID:      cfg.channelID,
	}
	if cmd.Path == "" {
		cmd.Path = hardware.DefaultFFmpegPath
	}
	if aenc != nil {
		cmd.AudioEncoder = aenc.Name()
	}
	return cmd, nil
}

func newPipelineState(in types.StreamInfo, out types.OutputSettings, accel state.HardwareAccel, cfg buildConfig) state.PipelineState {
	ps := state.PipelineState{
		DecoderMode:      accel,
		EncoderMode:      accel,
		VaapiDevice:      out.VaapiDevice,
		VaapiDriver:      out.VaapiDriver,
		Start:            cfg.start,
		Finish:           cfg.finish,
		PtsOffset:        cfg.ptsOffset,
		DoNotMapMetadata: out.DoNotMapMetadata,
		ServiceProvider:  out.ServiceProvider,
		ServiceName:      out.ServiceName,
		OutputFormat:     out.Format,
		ThreadCount:      out.ThreadCount,
		TonemapHDR:       out.TonemapHDR,
		TonemapAlgorithm: out.TonemapAlgorithm,
		Realtime:         in.Kind() == types.SourceLocal && !in.IsLive,
	}
	if ps.OutputFormat == "" {
		ps.OutputFormat = types.FormatMPEGTS
	}
	if out.Realtime != nil {
		ps.Realtime = *out.Realtime
	}
	if out.HLS != nil {
		ps.HLSPlaylistPath = out.HLS.PlaylistPath
		ps.HLSSegmentTemplate = out.HLS.SegmentTemplate
		ps.HLSSegmentSeconds = out.HLS.SegmentSeconds
		ps.HLSListSize = out.HLS.ListSize
	}
	if ps.OutputFormat == types.FormatHLS && ps.HLSPlaylistPath == "" {
		ps.HLSPlaylistPath = out.Destination
	}
	return ps
}

// hasAudio is false only when a probe positively found no audio stream.
func hasAudio(in types.StreamInfo) bool {
	probed := in.VideoStreams > 0 || in.FormatName != ""
	return !(probed && in.AudioStreams == 0 && in.AudioCodec == "")
}

func targetSize(out types.OutputSettings) state.FrameSize {
	if size, err := state.NewFrameSize(out.Width, out.Height); err == nil {
		return size
	}
	return state.FrameSize{}
}

// encoderPixelFormat is the system memory format fed to encoders that read
// software frames.
func encoderPixelFormat(venc encoder.Encoder, fs state.FrameState, tonemap bool) string {
	tenBit := fs.BitDepth() == 10 && !(tonemap && fs.IsHDR())
	if venc.Family() == encoder.FamilySoftware {
		if tenBit && venc.Name() != "libx264" && venc.Name() != "mpeg2video" {
			return state.PixelFormatYUV420P10
		}
		return state.PixelFormatYUV420P
	}
	if tenBit && venc.Name() != encoder.HardwareName(encoder.CodecH264, venc.Family()) {
		return state.PixelFormatP010
	}
	return state.PixelFormatNV12
}

func videoTimingArgs(in types.StreamInfo, out types.OutputSettings, q *types.QualityParams) []string {
	var args []string
	if out.FrameRate > 0 {
		args = append(args, "-r", strconv.FormatFloat(out.FrameRate, 'f', -1, 64))
	}
	if q != nil && q.KeyframeInterval != nil {
		return args
	}
	fps := out.FrameRate
	if fps <= 0 {
		fps = in.FrameRate
	}
	gop := DefaultGOP
	if fps > 0 {
		gop = int(math.Round(fps * DefaultGOPSeconds))
	}
	return append(args, "-g", strconv.Itoa(gop))
}

func environment(ps state.PipelineState) []string {
	if ps.VaapiDriver != "" && usesAccel(ps, state.HardwareVaapi) {
		return []string{"LIBVA_DRIVER_NAME=" + ps.VaapiDriver}
	}
	return nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
