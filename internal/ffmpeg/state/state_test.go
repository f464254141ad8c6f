package state

import (
	"errors"
	"testing"

	"github.com/smazurov/playoutnode/internal/types"
)

func TestNewFrameSize(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"valid", 1920, 1080, false},
		{"zero width", 0, 1080, true},
		{"negative height", 1280, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size, err := NewFrameSize(tt.w, tt.h)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFrameSize) {
					t.Fatalf("expected ErrInvalidFrameSize, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if size.String() != "1920x1080" {
				t.Errorf("String() = %q", size.String())
			}
			if r := size.AspectRatio(); r < 1.77 || r > 1.78 {
				t.Errorf("AspectRatio() = %f", r)
			}
		})
	}
}

func TestFrameStateWithDoesNotMutate(t *testing.T) {
	base := New(WithPixelFormat(PixelFormatYUV420P))
	next := base.With(WithLocation(Hardware), WithPixelFormat(PixelFormatNV12))

	if base.Location != Software || base.PixelFormat != PixelFormatYUV420P {
		t.Errorf("base state was modified: %+v", base)
	}
	if next.Location != Hardware || next.PixelFormat != PixelFormatNV12 {
		t.Errorf("overrides not applied: %+v", next)
	}
	if next.AudioChannels != DefaultAudioChannels || next.AudioSampleRate != DefaultAudioFrequency {
		t.Errorf("unchanged fields not copied: %+v", next)
	}
}

func TestFromStream(t *testing.T) {
	fs := FromStream(types.StreamInfo{
		Width:             1440,
		Height:            1080,
		VideoCodec:        "hevc",
		PixelFormat:       "yuv420p10le",
		FieldOrder:        "tt",
		SampleAspectRatio: "4:3",
		ColorTransfer:     "smpte2084",
		AudioCodec:        "ac3",
		AudioChannels:     6,
	})

	if fs.ScaledSize != (FrameSize{1440, 1080}) {
		t.Errorf("ScaledSize = %v", fs.ScaledSize)
	}
	if !fs.Interlaced || !fs.Anamorphic || !fs.IsHDR() {
		t.Errorf("derived flags wrong: %+v", fs)
	}
	if fs.BitDepth() != 10 {
		t.Errorf("BitDepth() = %d, want 10", fs.BitDepth())
	}
	if fs.AudioChannels != 6 || fs.AudioSampleRate != DefaultAudioFrequency {
		t.Errorf("audio = %d/%d", fs.AudioChannels, fs.AudioSampleRate)
	}
	if fs.Location != Software {
		t.Errorf("initial location should be software")
	}
}

func TestCurrentSize(t *testing.T) {
	scaled := FrameSize{1920, 800}
	padded := FrameSize{1920, 1080}
	fs := New(WithScaledSize(scaled))
	if fs.CurrentSize() != scaled {
		t.Errorf("want scaled size, got %v", fs.CurrentSize())
	}
	fs = fs.With(WithPaddedSize(padded))
	if fs.CurrentSize() != padded {
		t.Errorf("want padded size, got %v", fs.CurrentSize())
	}
}

func TestParseHardwareAccel(t *testing.T) {
	tests := []struct {
		in   string
		want HardwareAccel
		ok   bool
	}{
		{"cuda", HardwareNvenc, true},
		{"VAAPI", HardwareVaapi, true},
		{"", HardwareNone, true},
		{"quantum", HardwareNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseHardwareAccel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseHardwareAccel(%q) = %v, %v", tt.in, got, ok)
		}
	}
}

func TestLocationRequirement(t *testing.T) {
	if SoftwareOnly.Satisfied(Hardware) {
		t.Error("software-only stage accepted hardware frames")
	}
	if HardwareOnly.Satisfied(Software) {
		t.Error("hardware-only stage accepted software frames")
	}
	if !AnyLocation.Satisfied(Hardware) || !AnyLocation.Satisfied(Software) {
		t.Error("any-location stage rejected frames")
	}
}
