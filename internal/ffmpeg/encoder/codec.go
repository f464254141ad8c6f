package encoder

import "strings"

// Video codec tokens.
const (
	CodecH264  = "h264"
	CodecHEVC  = "hevc"
	CodecAV1   = "av1"
	CodecVP9   = "vp9"
	CodecMPEG2 = "mpeg2video"
	CodecCopy  = "copy"
)

// Audio codec tokens.
const (
	CodecAAC  = "aac"
	CodecAC3  = "ac3"
	CodecOpus = "opus"
	CodecMP3  = "mp3"
)

var softwareVideo = map[string]string{
	CodecH264:  "libx264",
	CodecHEVC:  "libx265",
	CodecAV1:   "libsvtav1",
	CodecVP9:   "libvpx-vp9",
	CodecMPEG2: "mpeg2video",
}

var softwareAudio = map[string]string{
	CodecAAC:  "aac",
	CodecAC3:  "ac3",
	CodecOpus: "libopus",
	CodecMP3:  "libmp3lame",
}

// hardwareCodecs lists the codecs each family can encode.
var hardwareCodecs = map[Family][]string{
	FamilyVideoToolbox: {CodecH264, CodecHEVC},
	FamilyNvenc:        {CodecH264, CodecHEVC, CodecAV1},
	FamilyAmf:          {CodecH264, CodecHEVC, CodecAV1},
	FamilyQsv:          {CodecH264, CodecHEVC, CodecAV1, CodecMPEG2, CodecVP9},
	FamilyVaapi:        {CodecH264, CodecHEVC, CodecAV1, CodecMPEG2, CodecVP9},
	FamilyRkmpp:        {CodecH264, CodecHEVC},
	FamilyV4l2m2m:      {CodecH264, CodecHEVC},
}

// NormalizeVideoCodec maps aliases to the canonical token.
func NormalizeVideoCodec(codec string) string {
	switch c := strings.ToLower(strings.TrimSpace(codec)); c {
	case "avc", "x264", "h.264":
		return CodecH264
	case "h265", "hevc", "x265", "h.265":
		return CodecHEVC
	case "mpeg2", "mpeg-2":
		return CodecMPEG2
	default:
		return c
	}
}

// NormalizeAudioCodec maps aliases to the canonical token.
func NormalizeAudioCodec(codec string) string {
	switch c := strings.ToLower(strings.TrimSpace(codec)); c {
	case "", "aac_lc":
		return CodecAAC
	case "libopus":
		return CodecOpus
	case "libmp3lame", "mp3float":
		return CodecMP3
	default:
		return c
	}
}

// HardwareName returns the engine encoder name for codec in family, e.g.
// "hevc_vaapi" or "mpeg2_qsv".
func HardwareName(codec string, family Family) string {
	prefix := codec
	if codec == CodecMPEG2 {
		prefix = "mpeg2"
	}
	return prefix + "_" + string(family)
}

// SupportsCodec reports whether family has an encoder for codec.
func SupportsCodec(family Family, codec string) bool {
	for _, c := range hardwareCodecs[family] {
		if c == codec {
			return true
		}
	}
	return false
}
