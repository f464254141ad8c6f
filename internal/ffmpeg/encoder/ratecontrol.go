package encoder

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/smazurov/playoutnode/internal/types"
)

var x26xPresets = []string{"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"}

// kbit renders a rate given in Mbps as whole kilobits so profile rates in
// kbps survive unchanged.
func kbit(mbps float64) string {
	k := int64(math.Round(mbps * 1000))
	if k < 1 {
		k = 1
	}
	return strconv.FormatInt(k, 10) + "k"
}

func unsupported(name string, mode types.RateControlMode) error {
	return fmt.Errorf("%w %q for %s", ErrUnsupportedRateControl, mode, name)
}

func quality(q *types.QualityParams, def int) string {
	if q.Quality != nil {
		return strconv.Itoa(*q.Quality)
	}
	return strconv.Itoa(def)
}

// bitrateArgs renders CBR/VBR bitrate flags. strict pins minrate and maxrate
// to the target for CBR. Buffer size defaults to twice the peak rate.
func bitrateArgs(q *types.QualityParams, strict bool) []string {
	var args []string
	if q.TargetBitrate == nil {
		return args
	}
	target := *q.TargetBitrate
	peak := target

	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, "-b:v", kbit(target))
		if strict {
			args = append(args, "-minrate", kbit(target))
		}
		args = append(args, "-maxrate", kbit(target))
	case types.RateControlVBR:
		args = append(args, "-b:v", kbit(target))
		if q.MinBitrate != nil {
			args = append(args, "-minrate", kbit(*q.MinBitrate))
		}
		if q.MaxBitrate != nil {
			peak = *q.MaxBitrate
			args = append(args, "-maxrate", kbit(peak))
		}
	}

	if q.BufferSize != nil {
		args = append(args, "-bufsize", kbit(*q.BufferSize))
	} else {
		args = append(args, "-bufsize", kbit(peak*2))
	}
	return args
}

// gopArgs renders keyframe interval and B-frame count.
func gopArgs(q *types.QualityParams) []string {
	var args []string
	if q == nil {
		return args
	}
	if q.KeyframeInterval != nil {
		args = append(args, "-g", strconv.Itoa(*q.KeyframeInterval))
	}
	if q.BFrames != nil {
		args = append(args, "-bf", strconv.Itoa(*q.BFrames))
	}
	return args
}

func softwareRateControl(name string, q *types.QualityParams) ([]string, error) {
	defaultCRF := 23
	switch name {
	case "libx265":
		defaultCRF = 28
	case "libsvtav1":
		defaultCRF = 30
	case "libvpx-vp9":
		defaultCRF = 31
	}

	var args []string
	if name == "libx264" || name == "libx265" {
		preset := "veryfast"
		if q != nil && q.Preset != nil && slices.Contains(x26xPresets, *q.Preset) {
			preset = *q.Preset
		}
		args = append(args, "-preset", preset)
	}

	if q == nil {
		if name == "mpeg2video" {
			return append(args, "-q:v", "4"), nil
		}
		args = append(args, "-crf", strconv.Itoa(defaultCRF))
		if name == "libvpx-vp9" {
			args = append(args, "-b:v", "0")
		}
		return args, nil
	}

	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, bitrateArgs(q, true)...)
	case types.RateControlVBR:
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCRF:
		if name == "mpeg2video" {
			return nil, unsupported(name, q.Mode)
		}
		args = append(args, "-crf", quality(q, defaultCRF))
		if name == "libvpx-vp9" {
			args = append(args, "-b:v", "0")
		}
	case types.RateControlCQP:
		switch name {
		case "libvpx-vp9":
			return nil, unsupported(name, q.Mode)
		case "mpeg2video":
			args = append(args, "-q:v", quality(q, 4))
		default:
			args = append(args, "-qp", quality(q, defaultCRF))
		}
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func nvencRateControl(name string, q *types.QualityParams) ([]string, error) {
	args := []string{"-preset", "fast"}
	if q == nil {
		return append(args, "-rc", "vbr", "-cq", "20"), nil
	}
	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, "-rc", "cbr")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlVBR:
		args = append(args, "-rc", "vbr")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		args = append(args, "-rc", "constqp", "-qp", quality(q, 20))
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func amfRateControl(name string, q *types.QualityParams) ([]string, error) {
	args := []string{"-usage", "transcoding", "-quality", "balanced"}
	if q == nil {
		return append(args, "-rc", "cqp", "-qp_i", "20", "-qp_p", "20"), nil
	}
	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, "-rc", "cbr")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlVBR:
		args = append(args, "-rc", "vbr_peak")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		qp := quality(q, 20)
		args = append(args, "-rc", "cqp", "-qp_i", qp, "-qp_p", qp)
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func qsvRateControl(name string, q *types.QualityParams) ([]string, error) {
	args := []string{"-preset", "medium"}
	if q == nil {
		return append(args, "-global_quality", "20"), nil
	}
	switch q.Mode {
	case types.RateControlCBR, types.RateControlVBR:
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		args = append(args, "-global_quality", quality(q, 20))
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func vaapiRateControl(name string, q *types.QualityParams) ([]string, error) {
	if q == nil {
		return []string{"-rc_mode", "CQP", "-qp", "20"}, nil
	}
	var args []string
	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, "-rc_mode", "CBR")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlVBR:
		args = append(args, "-rc_mode", "VBR")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		args = append(args, "-rc_mode", "CQP", "-qp", quality(q, 20))
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func videoToolboxRateControl(name string, q *types.QualityParams) ([]string, error) {
	args := []string{"-allow_sw", "1", "-realtime", "0"}
	if q == nil {
		return append(args, "-q:v", "20"), nil
	}
	switch q.Mode {
	case types.RateControlCBR, types.RateControlVBR:
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		args = append(args, "-q:v", quality(q, 20))
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func rkmppRateControl(name string, q *types.QualityParams) ([]string, error) {
	if q == nil {
		return []string{"-rc_mode", "CQP", "-qp_init", "20"}, nil
	}
	var args []string
	switch q.Mode {
	case types.RateControlCBR:
		args = append(args, "-rc_mode", "CBR")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlVBR:
		args = append(args, "-rc_mode", "VBR")
		args = append(args, bitrateArgs(q, false)...)
	case types.RateControlCQP:
		args = append(args, "-rc_mode", "CQP", "-qp_init", quality(q, 20))
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}

func v4l2m2mRateControl(name string, q *types.QualityParams) ([]string, error) {
	args := []string{"-num_output_buffers", "32", "-num_capture_buffers", "16"}
	if q == nil {
		return append(args, "-b:v", "4000k"), nil
	}
	switch q.Mode {
	case types.RateControlCBR, types.RateControlVBR:
		args = append(args, bitrateArgs(q, false)...)
	default:
		return nil, unsupported(name, q.Mode)
	}
	return append(args, gopArgs(q)...), nil
}
