package encoder

import (
	"fmt"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// Inventory reports which concrete hardware encoders the installed engine offers.
type Inventory interface {
	EncoderFor(codec string, accel state.HardwareAccel) (string, bool)
}

// SelectVideo picks the encoder for codec. A hardware encoder of accel is used
// when the inventory offers one; otherwise the software encoder for the codec.
// "copy" passes sourceCodec through.
func SelectVideo(codec, sourceCodec string, accel state.HardwareAccel, inv Inventory) (Encoder, error) {
	codec = NormalizeVideoCodec(codec)
	if codec == CodecCopy {
		return CopyVideo{SourceCodec: sourceCodec}, nil
	}
	if _, ok := softwareVideo[codec]; !ok {
		return nil, fmt.Errorf("%w: video codec %q", ErrUnsupportedCodec, codec)
	}

	if accel.IsHardware() && inv != nil {
		family := Family(accel)
		if SupportsCodec(family, codec) {
			if _, ok := inv.EncoderFor(codec, accel); ok {
				return hardwareEncoder(family, codec), nil
			}
		}
	}
	return Software{Codec: codec}, nil
}

func hardwareEncoder(family Family, codec string) Encoder {
	switch family {
	case FamilyVideoToolbox:
		return VideoToolbox{Codec: codec}
	case FamilyNvenc:
		return Nvenc{Codec: codec}
	case FamilyAmf:
		return Amf{Codec: codec}
	case FamilyQsv:
		return Qsv{Codec: codec}
	case FamilyVaapi:
		return Vaapi{Codec: codec}
	case FamilyRkmpp:
		return Rkmpp{Codec: codec}
	case FamilyV4l2m2m:
		return V4l2m2m{Codec: codec}
	default:
		return Software{Codec: codec}
	}
}

// SelectAudio picks the audio encoder for codec.
func SelectAudio(codec string, bitrate, channels, sampleRate int) (Encoder, error) {
	codec = NormalizeAudioCodec(codec)
	if codec == CodecCopy {
		return CopyAudio{}, nil
	}
	if _, ok := softwareAudio[codec]; !ok {
		return nil, fmt.Errorf("%w: audio codec %q", ErrUnsupportedCodec, codec)
	}
	return SoftwareAudio{Codec: codec, Bitrate: bitrate, Channels: channels, SampleRate: sampleRate}, nil
}
