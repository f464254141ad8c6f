package cmd

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/hardware"
	"github.com/spf13/cobra"
)

// CreateDetectCmd creates the detect command.
func CreateDetectCmd() *cobra.Command {
	return newDetectCmd(defaultDeps())
}

func newDetectCmd(d deps) *cobra.Command {
	var flags cliFlags
	var ffmpegPath, override string
	var timeout time.Duration

	c := &cobra.Command{
		Use:   "detect",
		Short: "Detect hardware acceleration support",
		Long: "Asks the ffmpeg binary which hardware accelerators and encoders it supports " +
			"and prints the backend new pipelines would use.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags.initLogging()
			if !hardware.IsAuto(override) {
				if _, ok := state.ParseHardwareAccel(override); !ok {
					return fmt.Errorf("unknown hardware override %q", override)
				}
			}

			caps := d.detector(timeout).Detect(c.Context(), ffmpegPath, override)
			if flags.asJSON {
				return writeJSON(c.OutOrStdout(), caps)
			}
			return printCapabilities(c, caps)
		},
	}

	flags.register(c)
	c.Flags().StringVar(&ffmpegPath, "ffmpeg", hardware.DefaultFFmpegPath, "Path to the ffmpeg binary")
	c.Flags().StringVar(&override, "hardware", "auto", "Backend override (auto, none, nvenc, qsv, vaapi, ...)")
	c.Flags().DurationVar(&timeout, "timeout", hardware.DefaultTimeout, "Detection timeout")
	return c
}

func printCapabilities(c *cobra.Command, caps *hardware.Capabilities) error {
	w := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ffmpeg:\t%s\n", caps.FFmpegPath)
	fmt.Fprintf(w, "ffprobe:\t%s\n", caps.FFprobePath)
	fmt.Fprintf(w, "platform:\t%s\n", caps.Platform)
	fmt.Fprintf(w, "preferred:\t%s\n", caps.Preferred)
	available := "none"
	if !caps.SoftwareOnly() {
		available = strings.Join(caps.AvailableNames(), ", ")
	}
	fmt.Fprintf(w, "available:\t%s\n", available)
	if caps.Error != "" {
		fmt.Fprintf(w, "error:\t%s\n", caps.Error)
	}

	codecs := make([]string, 0, len(caps.Encoders))
	for codec := range caps.Encoders {
		codecs = append(codecs, codec)
	}
	slices.Sort(codecs)
	for _, codec := range codecs {
		fmt.Fprintf(w, "encoders %s:\t%s\n", codec, strings.Join(caps.Encoders[codec], ", "))
	}
	return w.Flush()
}
