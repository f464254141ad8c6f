package encoder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

type fakeInventory map[state.HardwareAccel][]string

func (f fakeInventory) EncoderFor(codec string, accel state.HardwareAccel) (string, bool) {
	name := HardwareName(codec, Family(accel))
	for _, n := range f[accel] {
		if n == name {
			return n, true
		}
	}
	return "", false
}

func TestCopyVideoAlwaysCarriesBitstreamFilter(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"h264", "h264_mp4toannexb,dump_extra"},
		{"avc", "h264_mp4toannexb,dump_extra"},
		{"hevc", "hevc_mp4toannexb,dump_extra"},
		{"mpeg2video", "dump_extra"},
		{"", "dump_extra"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			enc, err := SelectVideo("copy", tt.source, state.HardwareNvenc, fakeInventory{})
			require.NoError(t, err)
			assert.Equal(t, FamilyCopy, enc.Family())

			args, err := enc.Args(&types.QualityParams{Mode: types.RateControlCRF})
			require.NoError(t, err)
			assert.Equal(t, []string{"-c:v", "copy", "-bsf:v", tt.want}, args)
		})
	}
}

func TestSelectVideo(t *testing.T) {
	inv := fakeInventory{
		state.HardwareNvenc:        {"h264_nvenc", "hevc_nvenc"},
		state.HardwareVaapi:        {"h264_vaapi", "mpeg2_vaapi"},
		state.HardwareVideoToolbox: {"h264_videotoolbox"},
	}

	tests := []struct {
		name       string
		codec      string
		accel      state.HardwareAccel
		wantName   string
		wantFamily Family
		wantInput  state.MemoryLocation
	}{
		{"software when no accel", "h264", state.HardwareNone, "libx264", FamilySoftware, state.Software},
		{"nvenc h264", "h264", state.HardwareNvenc, "h264_nvenc", FamilyNvenc, state.Hardware},
		{"nvenc without av1 falls back", "av1", state.HardwareNvenc, "libsvtav1", FamilySoftware, state.Software},
		{"vaapi mpeg2 alias", "mpeg2", state.HardwareVaapi, "mpeg2_vaapi", FamilyVaapi, state.Hardware},
		{"videotoolbox reads system memory", "h264", state.HardwareVideoToolbox, "h264_videotoolbox", FamilyVideoToolbox, state.Software},
		{"videotoolbox has no av1", "av1", state.HardwareVideoToolbox, "libsvtav1", FamilySoftware, state.Software},
		{"qsv not detected", "hevc", state.HardwareQsv, "libx265", FamilySoftware, state.Software},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := SelectVideo(tt.codec, "h264", tt.accel, inv)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, enc.Name())
			assert.Equal(t, tt.wantFamily, enc.Family())
			assert.Equal(t, tt.wantInput, enc.InputLocation())
			assert.Equal(t, StreamVideo, enc.Kind())
		})
	}
}

func TestSelectUnsupportedCodec(t *testing.T) {
	_, err := SelectVideo("theora", "", state.HardwareNone, nil)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	_, err = SelectAudio("flac", 0, 0, 0)
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestHardwareEncoderMovesFramesToDevice(t *testing.T) {
	in := state.New(state.WithVideoCodec("mpeg2video"))
	for _, enc := range []Encoder{Nvenc{Codec: "h264"}, VideoToolbox{Codec: "hevc"}, Rkmpp{Codec: "h264"}} {
		out := enc.Apply(in)
		assert.Equal(t, state.Hardware, out.Location, enc.Name())
	}
	out := Software{Codec: "h264"}.Apply(in)
	assert.Equal(t, state.Software, out.Location)
	assert.Equal(t, "h264", out.VideoCodec)
}

func TestRateControlPerFamily(t *testing.T) {
	cbr := &types.QualityParams{Mode: types.RateControlCBR, TargetBitrate: floatPtr(5), KeyframeInterval: intPtr(60)}
	vbr := &types.QualityParams{Mode: types.RateControlVBR, TargetBitrate: floatPtr(4), MaxBitrate: floatPtr(8)}
	cqp := &types.QualityParams{Mode: types.RateControlCQP, Quality: intPtr(24)}
	crf := &types.QualityParams{Mode: types.RateControlCRF, Quality: intPtr(21)}

	tests := []struct {
		name    string
		enc     Encoder
		q       *types.QualityParams
		want    string
		wantErr bool
	}{
		{"x264 defaults", Software{Codec: "h264"}, nil, "-c:v libx264 -preset veryfast -crf 23", false},
		{"x264 cbr", Software{Codec: "h264"}, cbr, "-c:v libx264 -preset veryfast -b:v 5000k -minrate 5000k -maxrate 5000k -bufsize 10000k -g 60", false},
		{"x265 crf", Software{Codec: "hevc"}, crf, "-c:v libx265 -preset veryfast -crf 21", false},
		{"vp9 crf", Software{Codec: "vp9"}, crf, "-c:v libvpx-vp9 -crf 21 -b:v 0", false},
		{"vp9 cqp", Software{Codec: "vp9"}, cqp, "", true},
		{"mpeg2 crf", Software{Codec: "mpeg2video"}, crf, "", true},
		{"nvenc defaults", Nvenc{Codec: "h264"}, nil, "-c:v h264_nvenc -preset fast -rc vbr -cq 20", false},
		{"nvenc vbr", Nvenc{Codec: "hevc"}, vbr, "-c:v hevc_nvenc -preset fast -rc vbr -b:v 4000k -maxrate 8000k -bufsize 16000k", false},
		{"nvenc crf rejected", Nvenc{Codec: "h264"}, crf, "", true},
		{"amf cqp", Amf{Codec: "h264"}, cqp, "-c:v h264_amf -usage transcoding -quality balanced -rc cqp -qp_i 24 -qp_p 24", false},
		{"qsv cqp", Qsv{Codec: "h264"}, cqp, "-c:v h264_qsv -preset medium -global_quality 24", false},
		{"vaapi cbr", Vaapi{Codec: "h264"}, cbr, "-c:v h264_vaapi -rc_mode CBR -b:v 5000k -maxrate 5000k -bufsize 10000k -g 60", false},
		{"vaapi cqp", Vaapi{Codec: "hevc"}, cqp, "-c:v hevc_vaapi -rc_mode CQP -qp 24", false},
		{"vaapi crf rejected", Vaapi{Codec: "h264"}, crf, "", true},
		{"videotoolbox cqp", VideoToolbox{Codec: "h264"}, cqp, "-c:v h264_videotoolbox -allow_sw 1 -realtime 0 -q:v 24", false},
		{"rkmpp cqp", Rkmpp{Codec: "h264"}, cqp, "-c:v h264_rkmpp -rc_mode CQP -qp_init 24", false},
		{"v4l2m2m cqp rejected", V4l2m2m{Codec: "h264"}, cqp, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := tt.enc.Args(tt.q)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedRateControl)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.Join(args, " "))
		})
	}
}

func TestRateControlKeepsExactBitrate(t *testing.T) {
	tests := []struct {
		target, peak int
		want         string
	}{
		{1234, 0, "-b:v 1234k -minrate 1234k -maxrate 1234k -bufsize 2468k"},
		{40, 0, "-b:v 40k -minrate 40k -maxrate 40k -bufsize 80k"},
		{2500, 3750, "-b:v 2500k -maxrate 3750k -bufsize 7500k"},
	}

	for _, tt := range tests {
		q := types.BitrateParams(tt.target, tt.peak, 0)
		args, err := Software{Codec: "h264"}.Args(q)
		require.NoError(t, err)
		assert.Equal(t, "-c:v libx264 -preset veryfast "+tt.want, strings.Join(args, " "))
	}
}

func TestSoftwareAudio(t *testing.T) {
	enc, err := SelectAudio("aac", 192, 2, 48000)
	require.NoError(t, err)
	args, err := enc.Args(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"-c:a", "aac", "-b:a", "192k", "-ac", "2", "-ar", "48000"}, args)

	out := enc.Apply(state.New(state.WithAudioCodec("ac3"), state.WithAudioFormat(6, 44100)))
	assert.Equal(t, "aac", out.AudioCodec)
	assert.Equal(t, 2, out.AudioChannels)
	assert.Equal(t, 48000, out.AudioSampleRate)

	enc, err = SelectAudio("copy", 0, 0, 0)
	require.NoError(t, err)
	args, _ = enc.Args(nil)
	assert.Equal(t, []string{"-c:a", "copy"}, args)
}
