package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

var hd = state.FrameSize{Width: 1920, Height: 1080}

func TestScaleFragments(t *testing.T) {
	src := state.New(state.WithScaledSize(state.FrameSize{Width: 1280, Height: 720}))

	tests := []struct {
		name     string
		filter   Scale
		want     string
		wantSize state.FrameSize
	}{
		{
			name:     "software pad mode keeps aspect",
			filter:   Scale{Target: hd, Mode: types.ScalingPad},
			want:     "scale=1920:1080:force_original_aspect_ratio=decrease",
			wantSize: hd,
		},
		{
			name:     "software crop mode fills",
			filter:   Scale{Target: hd, Mode: types.ScalingCrop},
			want:     "scale=1920:1080:force_original_aspect_ratio=increase",
			wantSize: hd,
		},
		{
			name:     "stretch",
			filter:   Scale{Target: hd, Mode: types.ScalingStretch},
			want:     "scale=1920:1080",
			wantSize: hd,
		},
		{
			name:     "cuda",
			filter:   Scale{Target: hd, Mode: types.ScalingPad, Accel: state.HardwareNvenc},
			want:     "scale_cuda=1920:1080",
			wantSize: hd,
		},
		{
			name:     "vaapi",
			filter:   Scale{Target: hd, Mode: types.ScalingPad, Accel: state.HardwareVaapi},
			want:     "scale_vaapi=w=1920:h=1080:force_divisible_by=2",
			wantSize: hd,
		},
		{
			name:     "qsv",
			filter:   Scale{Target: hd, Mode: types.ScalingPad, Accel: state.HardwareQsv},
			want:     "vpp_qsv=w=1920:h=1080",
			wantSize: hd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.filter.Applies(src) {
				t.Fatal("scale should apply to a 1280x720 source")
			}
			got, next := tt.filter.Apply(src)
			if got != tt.want {
				t.Errorf("fragment = %q, want %q", got, tt.want)
			}
			if next.ScaledSize != tt.wantSize {
				t.Errorf("scaled size = %v, want %v", next.ScaledSize, tt.wantSize)
			}
		})
	}
}

func TestScaleFitsLetterbox(t *testing.T) {
	src := state.New(state.WithScaledSize(state.FrameSize{Width: 1920, Height: 800}))
	_, next := Scale{Target: state.FrameSize{Width: 1280, Height: 720}, Mode: types.ScalingPad}.Apply(src)
	want := state.FrameSize{Width: 1280, Height: 532}
	if next.ScaledSize != want {
		t.Errorf("scaled size = %v, want %v", next.ScaledSize, want)
	}
}

func TestPadSkippedWhenSizeMatches(t *testing.T) {
	fs := state.New(state.WithScaledSize(hd))
	if (Pad{Target: hd}).Applies(fs) {
		t.Error("pad should not apply when frame already matches target")
	}
	frag, next := Pad{Target: hd}.Apply(state.New())
	if frag != "pad=1920:1080:(ow-iw)/2:(oh-ih)/2:color=black" {
		t.Errorf("fragment = %q", frag)
	}
	if next.PaddedSize != hd {
		t.Errorf("padded size = %v", next.PaddedSize)
	}
}

func TestTonemap(t *testing.T) {
	sdr := state.New(state.WithColor("tv", "bt709", "bt709", "bt709"))
	if (Tonemap{}).Applies(sdr) {
		t.Error("tonemap applied to SDR input")
	}

	hdr := state.New(
		state.WithColor("tv", "bt2020nc", "smpte2084", "bt2020"),
		state.WithPixelFormat(state.PixelFormatYUV420P10),
		state.WithLocation(state.Hardware),
	)
	frag, next := Tonemap{}.Apply(hdr)

	dl := strings.Index(frag, "hwdownload,format=p010le")
	tm := strings.Index(frag, "tonemap=tonemap=hable")
	if dl != 0 || tm < 0 {
		t.Fatalf("expected download before tonemap, got %q", frag)
	}
	if next.Location != state.Software || next.IsHDR() || next.PixelFormat != state.PixelFormatYUV420P {
		t.Errorf("unexpected state after tonemap: %+v", next)
	}
}

func TestHardwareTransfers(t *testing.T) {
	sw := state.New(state.WithPixelFormat(state.PixelFormatYUV420P))

	tests := []struct {
		accel   state.HardwareAccel
		want    string
		applies bool
	}{
		{state.HardwareNvenc, "hwupload_cuda", true},
		{state.HardwareVaapi, "format=nv12,hwupload", true},
		{state.HardwareQsv, "format=nv12,hwupload=extra_hw_frames=64,format=qsv", true},
		{state.HardwareVideoToolbox, "", false},
		{state.HardwareAmf, "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.accel), func(t *testing.T) {
			up := HardwareUpload{Accel: tt.accel}
			if up.Applies(sw) != tt.applies {
				t.Fatalf("Applies = %v, want %v", !tt.applies, tt.applies)
			}
			if !tt.applies {
				return
			}
			frag, next := up.Apply(sw)
			if frag != tt.want {
				t.Errorf("fragment = %q, want %q", frag, tt.want)
			}
			if next.Location != state.Hardware {
				t.Error("upload did not move frames to hardware")
			}
			if tt.accel != state.HardwareNvenc && next.PixelFormat != state.PixelFormatNV12 {
				t.Errorf("device pixel format = %q, want %q", next.PixelFormat, state.PixelFormatNV12)
			}
		})
	}

	tenBit := state.New(state.WithPixelFormat("yuv420p10le"))
	frag, next := HardwareUpload{Accel: state.HardwareQsv}.Apply(tenBit)
	if frag != "format=p010le,hwupload=extra_hw_frames=64,format=qsv" {
		t.Errorf("10-bit qsv upload = %q", frag)
	}
	if next.PixelFormat != state.PixelFormatP010 {
		t.Errorf("10-bit qsv device format = %q", next.PixelFormat)
	}

	hw := sw.With(state.WithLocation(state.Hardware))
	if (HardwareUpload{Accel: state.HardwareNvenc}).Applies(hw) {
		t.Error("upload applied to frames already in hardware")
	}
	frag, next = HardwareDownload{}.Apply(hw)
	if frag != "hwdownload,format=nv12" || next.Location != state.Software {
		t.Errorf("download = %q, %v", frag, next.Location)
	}
}

func TestDeinterlace(t *testing.T) {
	progressive := state.New(state.WithPixelFormat(state.PixelFormatYUV420P))
	if (Deinterlace{}).Applies(progressive) {
		t.Error("deinterlace applied to progressive frames")
	}

	interlaced := progressive.With(state.WithInterlaced(true))
	tests := map[state.HardwareAccel]string{
		state.HardwareNone:  "yadif",
		state.HardwareNvenc: "yadif_cuda",
		state.HardwareVaapi: "deinterlace_vaapi",
		state.HardwareQsv:   "deinterlace_qsv",
	}
	for accel, want := range tests {
		frag, next := Deinterlace{Accel: accel}.Apply(interlaced)
		if frag != want {
			t.Errorf("%s: fragment = %q, want %q", accel, frag, want)
		}
		if next.Interlaced {
			t.Errorf("%s: still interlaced", accel)
		}
	}
}

func TestSampleAspectRatio(t *testing.T) {
	fs := state.New(state.WithScaledSize(state.FrameSize{Width: 720, Height: 480}), state.WithAnamorphic(true))
	frag, next := SampleAspectRatio{SAR: "32:27"}.Apply(fs)
	if frag != "scale=iw*sar:ih,setsar=1" {
		t.Errorf("fragment = %q", frag)
	}
	if next.Anamorphic {
		t.Error("still anamorphic after correction")
	}
	if next.ScaledSize != (state.FrameSize{Width: 852, Height: 480}) {
		t.Errorf("scaled size = %v", next.ScaledSize)
	}
}

func TestAudioChain(t *testing.T) {
	c := Chain{Audio: NewAudioChain(true, 90*time.Second)}
	res := c.Render(state.New())
	want := "aresample=async=1:first_pts=0,apad=whole_dur=90000ms,loudnorm=I=-16:TP=-1.5:LRA=11"
	if res.AudioFilter != want {
		t.Errorf("audio filter = %q, want %q", res.AudioFilter, want)
	}
}

func TestKindString(t *testing.T) {
	if KindHardwareUpload.String() != "hardware_upload" {
		t.Errorf("got %q", KindHardwareUpload.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("got %q", Kind(99).String())
	}
}
