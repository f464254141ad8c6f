package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/smazurov/playoutnode/internal/types"
	"github.com/spf13/cobra"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	return newProbeCmd(defaultDeps())
}

func newProbeCmd(d deps) *cobra.Command {
	var flags cliFlags
	var ffprobePath string
	var timeout time.Duration

	c := &cobra.Command{
		Use:   "probe <path-or-url>",
		Short: "Describe a media source with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			flags.initLogging()

			info, err := d.prober(timeout).Probe(c.Context(), ffprobePath, args[0])
			if err != nil {
				return err
			}
			if flags.asJSON {
				return writeJSON(c.OutOrStdout(), info)
			}
			return printStreamInfo(c, info)
		},
	}

	flags.register(c)
	c.Flags().StringVar(&ffprobePath, "ffprobe", hardware.ProbePath(hardware.DefaultFFmpegPath), "Path to the ffprobe binary")
	c.Flags().DurationVar(&timeout, "timeout", ffmpeg.DefaultProbeTimeout, "Probe timeout")
	return c
}

func printStreamInfo(c *cobra.Command, info types.StreamInfo) error {
	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "path:\t%s\n", info.Path)
	fmt.Fprintf(w, "source:\t%s\n", info.SourceKind)
	fmt.Fprintf(w, "format:\t%s\n", info.FormatName)
	if info.IsLive {
		fmt.Fprintf(w, "duration:\tlive\n")
	} else {
		fmt.Fprintf(w, "duration:\t%s\n", info.Duration)
	}
	if info.VideoCodec != "" {
		fmt.Fprintf(w, "video:\t%s %dx%d %s %.3g fps\n",
			info.VideoCodec, info.Width, info.Height, info.PixelFormat, info.FrameRate)
		if info.Interlaced() {
			fmt.Fprintf(w, "field order:\t%s\n", info.FieldOrder)
		}
		if info.ColorTransfer != "" {
			fmt.Fprintf(w, "transfer:\t%s\n", info.ColorTransfer)
		}
	}
	if info.AudioCodec != "" {
		fmt.Fprintf(w, "audio:\t%s %d ch %d Hz (stream %d of %d)\n",
			info.AudioCodec, info.AudioChannels, info.AudioSampleRate, info.AudioStreamIndex+1, info.AudioStreams)
	}
	return w.Flush()
}
