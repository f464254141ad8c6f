package filter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
	"github.com/smazurov/playoutnode/internal/types"
)

func TestVideoChainPadScenario(t *testing.T) {
	in := state.New(state.WithVideoCodec("h264"), state.WithPixelFormat(state.PixelFormatYUV420P))
	plan := Plan{
		Target:       hd,
		ScalingMode:  types.ScalingPad,
		EncodeAccel:  state.HardwareNone,
		EncoderInput: state.Software,
		PixelFormat:  state.PixelFormatYUV420P,
	}

	res := Chain{Video: NewVideoChain(in, plan)}.Render(in)
	want := "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2:color=black"
	if res.VideoFilter != want {
		t.Errorf("video filter = %q, want %q", res.VideoFilter, want)
	}
	if res.Final.PaddedSize != hd {
		t.Errorf("final padded size = %v", res.Final.PaddedSize)
	}
}

// Every stage that needs device frames must see hardware frames, every
// software-only stage must see system frames, and the encoder input must
// match the final location.
func TestVideoChainLocationInvariant(t *testing.T) {
	accels := append([]state.HardwareAccel{state.HardwareNone}, state.AllHardwareAccels...)
	sources := map[string]state.FrameState{
		"sdr progressive": state.New(state.WithPixelFormat("yuv420p"), state.WithScaledSize(state.FrameSize{Width: 1280, Height: 720})),
		"hdr interlaced anamorphic": state.New(
			state.WithPixelFormat("yuv420p10le"),
			state.WithScaledSize(state.FrameSize{Width: 720, Height: 576}),
			state.WithInterlaced(true),
			state.WithAnamorphic(true),
			state.WithColor("tv", "bt2020nc", "smpte2084", "bt2020"),
		),
		"unknown geometry": state.New(),
	}
	modes := []types.ScalingMode{types.ScalingPad, types.ScalingCrop, types.ScalingStretch}

	for name, src := range sources {
		for _, decode := range accels {
			for _, encode := range accels {
				for _, mode := range modes {
					for _, watermark := range []bool{false, true} {
						label := fmt.Sprintf("%s/%s->%s/%s/wm=%v", name, decode, encode, mode, watermark)
						in := src
						if decode.HoldsFramesInHardware() {
							in = in.With(state.WithLocation(state.Hardware))
						}
						encoderInput := state.Software
						if NeedsUpload(encode) {
							encoderInput = state.Hardware
						}
						plan := Plan{
							Target:       hd,
							ScalingMode:  mode,
							SAR:          "16:15",
							Deinterlace:  true,
							TonemapHDR:   true,
							Watermark:    watermark,
							DecodeAccel:  decode,
							EncodeAccel:  encode,
							EncoderInput: encoderInput,
							PixelFormat:  state.PixelFormatYUV420P,
						}
						chain := Chain{Video: NewVideoChain(in, plan)}
						if watermark {
							chain.Watermark = &Watermark{Settings: types.WatermarkSettings{Path: "logo.png"}, Frame: hd}
						}
						res := chain.Render(in)
						assertLocationInvariant(t, label, res, encoderInput)
					}
				}
			}
		}
	}
}

func assertLocationInvariant(t *testing.T, label string, res Result, encoderInput state.MemoryLocation) {
	t.Helper()
	for i, step := range res.Steps {
		if !step.Requires.Satisfied(step.Before.Location) {
			t.Errorf("%s: step %d (%s) got %s frames", label, i, step.Kind, step.Before.Location)
		}
		if step.Before.Location == state.Software && step.After.Location == state.Hardware && step.Kind != KindHardwareUpload {
			t.Errorf("%s: step %d (%s) moved frames to hardware without an upload", label, i, step.Kind)
		}
		if step.Before.Location == state.Hardware && step.After.Location == state.Software &&
			step.Kind != KindHardwareDownload && step.Kind != KindTonemap {
			t.Errorf("%s: step %d (%s) moved frames to software without a download", label, i, step.Kind)
		}
	}
	if res.Final.Location != encoderInput {
		t.Errorf("%s: encoder expects %s frames, chain ends with %s", label, encoderInput, res.Final.Location)
	}
	if n := len(res.Steps); n > 0 && encoderInput == state.Hardware {
		last := res.Steps[n-1]
		if last.Before.Location == state.Software && last.Kind != KindHardwareUpload {
			t.Errorf("%s: last step before hardware encoder is %s", label, last.Kind)
		}
	}
}

func TestVideoChainHDRFromHardware(t *testing.T) {
	in := state.New(
		state.WithPixelFormat("yuv420p10le"),
		state.WithLocation(state.Hardware),
		state.WithColor("tv", "bt2020nc", "arib-std-b67", "bt2020"),
	)
	plan := Plan{
		Target:       hd,
		TonemapHDR:   true,
		DecodeAccel:  state.HardwareVaapi,
		EncodeAccel:  state.HardwareVaapi,
		EncoderInput: state.Hardware,
	}
	res := Chain{Video: NewVideoChain(in, plan)}.Render(in)

	dl := strings.Index(res.VideoFilter, "hwdownload")
	tm := strings.Index(res.VideoFilter, "tonemap=")
	up := strings.LastIndex(res.VideoFilter, "hwupload")
	if dl < 0 || tm < 0 || up < 0 || dl > tm || tm > up {
		t.Fatalf("want download, tonemap, upload in order; got %q", res.VideoFilter)
	}
	if !strings.HasSuffix(res.VideoFilter, "format=nv12,hwupload") {
		t.Errorf("upload must be the final stage: %q", res.VideoFilter)
	}
}

func TestVideoChainHardwareScaleKeepsFramesOnDevice(t *testing.T) {
	in := state.New(
		state.WithPixelFormat("yuv420p"),
		state.WithLocation(state.Hardware),
		state.WithScaledSize(state.FrameSize{Width: 3840, Height: 2160}),
	)
	plan := Plan{
		Target:       hd,
		ScalingMode:  types.ScalingStretch,
		DecodeAccel:  state.HardwareNvenc,
		EncodeAccel:  state.HardwareNvenc,
		EncoderInput: state.Hardware,
	}
	res := Chain{Video: NewVideoChain(in, plan)}.Render(in)
	if res.VideoFilter != "scale_cuda=1920:1080" {
		t.Errorf("video filter = %q", res.VideoFilter)
	}
}

func TestVideoChainUnknownSizeScalesInSoftware(t *testing.T) {
	for _, accel := range []state.HardwareAccel{state.HardwareNvenc, state.HardwareVaapi, state.HardwareQsv} {
		t.Run(string(accel), func(t *testing.T) {
			in := state.New(state.WithVideoCodec("h264"), state.WithPixelFormat("yuv420p"), state.WithLocation(state.Hardware))
			plan := Plan{
				Target:       hd,
				ScalingMode:  types.ScalingPad,
				DecodeAccel:  accel,
				EncodeAccel:  accel,
				EncoderInput: state.Hardware,
				PixelFormat:  state.PixelFormatYUV420P,
			}
			res := Chain{Video: NewVideoChain(in, plan)}.Render(in)

			dl := strings.Index(res.VideoFilter, "hwdownload")
			sc := strings.Index(res.VideoFilter, "scale=1920:1080:force_original_aspect_ratio=decrease")
			pad := strings.Index(res.VideoFilter, "pad=1920:1080:")
			if dl < 0 || sc < 0 || pad < 0 || dl > sc || sc > pad {
				t.Fatalf("want download, software scale, pad in order; got %q", res.VideoFilter)
			}
			if strings.Contains(res.VideoFilter, "scale_") || strings.Contains(res.VideoFilter, "vpp_qsv") {
				t.Errorf("hardware scaler used for unknown geometry: %q", res.VideoFilter)
			}
			if res.Final.PaddedSize != hd {
				t.Errorf("final padded size = %v", res.Final.PaddedSize)
			}
		})
	}
}

func TestWatermarkComplexGraph(t *testing.T) {
	in := state.New(state.WithPixelFormat("yuv420p"), state.WithScaledSize(state.FrameSize{Width: 1280, Height: 720}))
	plan := Plan{
		Target:       hd,
		Watermark:    true,
		EncodeAccel:  state.HardwareNvenc,
		EncoderInput: state.Hardware,
		PixelFormat:  state.PixelFormatYUV420P,
	}
	chain := Chain{
		Video: NewVideoChain(in, plan),
		Audio: NewAudioChain(false, 0),
		Watermark: &Watermark{
			Settings: types.WatermarkSettings{Path: "logo.png", Position: "top-right", MarginPercent: 2, WidthPercent: 10, Opacity: 0.8},
			Frame:    hd,
		},
		AudioStream: 1,
	}
	res := chain.Render(in)

	if res.VideoFilter != "" || res.AudioFilter != "" {
		t.Errorf("simple filters should be empty in complex mode: %q / %q", res.VideoFilter, res.AudioFilter)
	}
	want := "[0:v]scale=1920:1080:force_original_aspect_ratio=decrease[vmain];" +
		"[1:v]scale=192:-1,format=yuva420p,colorchannelmixer=aa=0.80[wm];" +
		"[vmain][wm]overlay=x=W-w-38:y=21,hwupload_cuda[vout];" +
		"[0:a:1]aresample=async=1:first_pts=0[aout]"
	if res.ComplexFilter != want {
		t.Errorf("complex filter =\n%s\nwant\n%s", res.ComplexFilter, want)
	}
	if res.VideoMap != VideoOutLabel || res.AudioMap != AudioOutLabel {
		t.Errorf("maps = %q %q", res.VideoMap, res.AudioMap)
	}
	if res.Final.Location != state.Hardware {
		t.Error("frames should be uploaded after the overlay")
	}
}
