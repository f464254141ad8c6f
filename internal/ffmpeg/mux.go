package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

// PipeOutput is the destination used when none is configured.
const PipeOutput = "pipe:1"

// HLS segmenter defaults.
const (
	DefaultHLSSegmentSeconds = 4
	DefaultHLSListSize       = 10
)

// containerArgs returns the muxer flags and the output destination.
func containerArgs(ps state.PipelineState, out types.OutputSettings) ([]string, string, error) {
	dest := out.Destination
	if dest == "" {
		dest = PipeOutput
	}

	var args []string
	switch ps.OutputFormat {
	case types.FormatMPEGTS:
		args = append(args,
			"-f", "mpegts",
			"-mpegts_flags", "+resend_headers",
			"-pcr_period", "20",
			"-muxdelay", "0",
			"-muxpreload", "0",
		)
		if ps.ServiceProvider != "" {
			args = append(args, "-metadata", "service_provider="+ps.ServiceProvider)
		}
		if ps.ServiceName != "" {
			args = append(args, "-metadata", "service_name="+ps.ServiceName)
		}
	case types.FormatHLS:
		if ps.HLSPlaylistPath == "" {
			return nil, "", fmt.Errorf("%w: hls output needs a playlist path", ErrInvalidOutput)
		}
		segment := ps.HLSSegmentSeconds
		if segment <= 0 {
			segment = DefaultHLSSegmentSeconds
		}
		listSize := ps.HLSListSize
		if listSize <= 0 {
			listSize = DefaultHLSListSize
		}
		template := ps.HLSSegmentTemplate
		if template == "" {
			template = strings.TrimSuffix(ps.HLSPlaylistPath, ".m3u8") + "_%05d.ts"
		}
		args = append(args,
			"-f", "hls",
			"-hls_time", strconv.Itoa(segment),
			"-hls_list_size", strconv.Itoa(listSize),
			"-hls_segment_type", "mpegts",
			"-hls_flags", "delete_segments+program_date_time+omit_endlist",
			"-hls_segment_filename", template,
		)
		dest = ps.HLSPlaylistPath
	case types.FormatMP4, types.FormatMOV:
		flags := "+faststart"
		// A pipe cannot be rewound to move the index.
		if strings.HasPrefix(dest, "pipe:") {
			flags = "+frag_keyframe+empty_moov"
		}
		args = append(args, "-f", string(ps.OutputFormat), "-movflags", flags)
	case types.FormatMKV:
		args = append(args, "-f", "matroska")
	case types.FormatNUT:
		args = append(args, "-f", "nut")
	default:
		return nil, "", fmt.Errorf("%w: output format %q", ErrInvalidOutput, ps.OutputFormat)
	}

	if ps.DoNotMapMetadata {
		args = append(args, "-map_metadata", "-1")
	}
	if ps.PtsOffset > 0 {
		args = append(args, "-output_ts_offset", seconds(ps.PtsOffset))
	}
	return args, dest, nil
}
