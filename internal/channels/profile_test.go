package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smazurov/playoutnode/internal/ffmpeg"
	"github.com/smazurov/playoutnode/internal/types"
)

func TestToOutputSettings(t *testing.T) {
	on, off := true, false
	base := types.OutputSettings{
		Width:          1920,
		Height:         1080,
		VideoCodec:     "h264",
		AudioCodec:     "aac",
		VideoBitrate:   6000,
		NormalizeAudio: true,
		Format:         types.FormatMPEGTS,
		Hardware:       "auto",
	}

	p := Profile{
		ID:             "news",
		Width:          1280,
		Height:         720,
		VideoBitrate:   3000,
		NormalizeAudio: &off,
		Deinterlace:    &on,
		Hardware:       "none",
		ServiceName:    "News 24",
		Watermark:      &types.WatermarkSettings{Path: "/srv/news.png"},
	}
	out := p.ToOutputSettings(base)

	assert.Equal(t, 1280, out.Width)
	assert.Equal(t, 720, out.Height)
	assert.Equal(t, 3000, out.VideoBitrate)
	assert.Equal(t, "h264", out.VideoCodec, "unset fields keep the base value")
	assert.Equal(t, "aac", out.AudioCodec)
	assert.False(t, out.NormalizeAudio, "explicit false overrides the base")
	assert.True(t, out.Deinterlace)
	assert.Equal(t, "none", out.Hardware)
	assert.Equal(t, "News 24", out.ServiceName)
	assert.Equal(t, types.FormatMPEGTS, out.Format)
	require.NotNil(t, out.Watermark)
	assert.Equal(t, "/srv/news.png", out.Watermark.Path)

	assert.Equal(t, 1920, base.Width, "base must not be modified")
}

func TestProfileBuildOptions(t *testing.T) {
	p := Profile{ID: "news", InputOptions: []ffmpeg.OptionType{ffmpeg.OptionGeneratePTS, ffmpeg.OptionThreadQueue4096}}

	cmd, err := ffmpeg.Build(
		types.StreamInfo{Path: "/media/a.ts", VideoCodec: "h264"},
		p.ToOutputSettings(types.OutputSettings{VideoCodec: "h264"}),
		nil,
		p.BuildOptions()...,
	)
	require.NoError(t, err)
	assert.Equal(t, "news", cmd.ChannelID)
	assert.Contains(t, cmd.Args, "4096")
	assert.NotContains(t, cmd.Args, "ignore_err", "profile options replace the defaults")
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"minimal", Profile{ID: "a"}, false},
		{"auto hardware", Profile{ID: "a", Hardware: "auto"}, false},
		{"cuda alias", Profile{ID: "a", Hardware: "cuda"}, false},
		{"missing id", Profile{}, true},
		{"unknown hardware", Profile{ID: "a", Hardware: "voodoo"}, true},
		{"negative width", Profile{ID: "a", Width: -1, Height: 720}, true},
		{"unknown option", Profile{ID: "a", InputOptions: []ffmpeg.OptionType{"bogus"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChannel)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
