package cmd

import (
	"fmt"
	"runtime"
	"time"

	"github.com/smazurov/playoutnode/internal/api/models"
	"github.com/smazurov/playoutnode/internal/channels"
	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CreateBuildCmd creates the build command.
func CreateBuildCmd() *cobra.Command {
	return newBuildCmd(defaultDeps())
}

type buildFlags struct {
	cliFlags

	ffmpegPath   string
	detect       bool
	probe        bool
	channel      string
	channelsFile string
	start        time.Duration
	finish       time.Duration
	ptsOffset    time.Duration

	out types.OutputSettings
}

func newBuildCmd(d deps) *cobra.Command {
	var f buildFlags

	c := &cobra.Command{
		Use:   "build <path-or-url>",
		Short: "Print the ffmpeg command for a source",
		Long: "Probes the source, detects hardware support and prints the ffmpeg command " +
			"that would transcode it. Nothing is executed.",
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f.initLogging()
			ctx := c.Context()

			caps := hardware.SoftwareOnlyCapabilities(f.ffmpegPath, runtime.GOOS)
			if f.detect {
				caps = d.detector(0).Detect(ctx, f.ffmpegPath, f.out.Hardware)
			}

			in := types.StreamInfo{Path: args[0]}
			if f.probe {
				info, err := d.prober(0).Probe(ctx, caps.FFprobePath, args[0])
				if err != nil {
					return err
				}
				in = info
			}

			out := f.out
			var opts []ffmpeg.BuildOption
			if f.channel != "" {
				store := channels.NewStore(f.channelsFile, d.fs, nil)
				if err := store.Load(); err != nil {
					return err
				}
				profile, ok := store.Get(f.channel)
				if !ok {
					return fmt.Errorf("%w: %s", channels.ErrChannelNotFound, f.channel)
				}
				out = profile.ToOutputSettings(out)
				// Flags given on the command line beat the profile.
				c.Flags().Visit(func(fl *pflag.Flag) { f.reapply(&out, fl.Name) })
				opts = append(opts, profile.BuildOptions()...)
			}
			if f.start > 0 {
				opts = append(opts, ffmpeg.WithStart(f.start))
			}
			if f.finish > 0 {
				opts = append(opts, ffmpeg.WithFinish(f.finish))
			}
			if f.ptsOffset != 0 {
				opts = append(opts, ffmpeg.WithPtsOffset(f.ptsOffset))
			}

			cmd, err := ffmpeg.Build(in, out, caps, opts...)
			if err != nil {
				return err
			}

			if f.asJSON {
				return writeJSON(c.OutOrStdout(), models.PipelineData{
					ID:             cmd.ID.String(),
					Command:        cmd.String(),
					Argv:           cmd.Argv(),
					Env:            cmd.Env,
					VideoEncoder:   cmd.VideoEncoder,
					AudioEncoder:   cmd.AudioEncoder,
					Accel:          string(cmd.Accel),
					DecodeAccel:    string(cmd.Pipeline.DecoderMode),
					SoftwareDecode: cmd.SoftwareDecode,
					Filters:        cmd.Filters(),
					Channel:        cmd.ChannelID,
					Output:         out,
				})
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), cmd.String())
			return err
		},
	}

	f.register(c)
	fl := c.Flags()
	fl.StringVar(&f.ffmpegPath, "ffmpeg", hardware.DefaultFFmpegPath, "Path to the ffmpeg binary")
	fl.BoolVar(&f.detect, "detect", true, "Detect hardware support; false builds for software only")
	fl.BoolVar(&f.probe, "probe", true, "Probe the source; false builds from the path alone")
	fl.StringVar(&f.channel, "channel", "", "Channel profile applied over the output flags")
	fl.StringVar(&f.channelsFile, "channels-file", channels.DefaultPath, "Channel profiles file")
	fl.DurationVar(&f.start, "start", 0, "Seek offset")
	fl.DurationVar(&f.finish, "finish", 0, "End position")
	fl.DurationVar(&f.ptsOffset, "pts-offset", 0, "Output timestamp offset")

	fl.IntVar(&f.out.Width, "width", 0, "Output width, 0 keeps the source size")
	fl.IntVar(&f.out.Height, "height", 0, "Output height, 0 keeps the source size")
	fl.StringVar(&f.out.VideoCodec, "video-codec", "h264", "Video codec (h264, hevc, av1, vp9, mpeg2video, copy)")
	fl.StringVar(&f.out.AudioCodec, "audio-codec", "aac", "Audio codec (aac, ac3, mp3, opus, copy)")
	fl.IntVar(&f.out.VideoBitrate, "video-bitrate", 0, "Video bitrate in kbps")
	fl.IntVar(&f.out.AudioBitrate, "audio-bitrate", 0, "Audio bitrate in kbps")
	fl.Float64Var(&f.out.FrameRate, "frame-rate", 0, "Output frame rate, 0 keeps the source rate")
	fl.StringVar((*string)(&f.out.Format), "format", string(types.FormatMPEGTS), "Container (mpegts, hls, mkv, mp4, mov, nut)")
	fl.StringVar(&f.out.Destination, "output", "", "Output path, empty writes to stdout")
	fl.StringVar(&f.out.Hardware, "hardware", "auto", "Backend override (auto, none, nvenc, qsv, vaapi, ...)")
	fl.BoolVar(&f.out.NormalizeAudio, "normalize-audio", false, "Apply loudness normalization")
	fl.BoolVar(&f.out.Deinterlace, "deinterlace", false, "Deinterlace interlaced sources")
	fl.BoolVar(&f.out.TonemapHDR, "tonemap", false, "Tonemap HDR sources to SDR")
	return c
}

// reapply copies one explicitly set output flag into out.
func (f *buildFlags) reapply(out *types.OutputSettings, name string) {
	switch name {
	case "width":
		out.Width = f.out.Width
	case "height":
		out.Height = f.out.Height
	case "video-codec":
		out.VideoCodec = f.out.VideoCodec
	case "audio-codec":
		out.AudioCodec = f.out.AudioCodec
	case "video-bitrate":
		out.VideoBitrate = f.out.VideoBitrate
	case "audio-bitrate":
		out.AudioBitrate = f.out.AudioBitrate
	case "frame-rate":
		out.FrameRate = f.out.FrameRate
	case "format":
		out.Format = f.out.Format
	case "output":
		out.Destination = f.out.Destination
	case "hardware":
		out.Hardware = f.out.Hardware
	case "normalize-audio":
		out.NormalizeAudio = f.out.NormalizeAudio
	case "deinterlace":
		out.Deinterlace = f.out.Deinterlace
	case "tonemap":
		out.TonemapHDR = f.out.TonemapHDR
	}
}
