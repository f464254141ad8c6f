package types

// RateControlMode represents the rate control strategy
type RateControlMode string

const (
	RateControlCBR RateControlMode = "cbr" // Constant bitrate
	RateControlVBR RateControlMode = "vbr" // Variable bitrate
	RateControlCRF RateControlMode = "crf" // Constant rate factor (quality-based)
	RateControlCQP RateControlMode = "cqp" // Constant quantization parameter
)

// QualityParams represents quality and rate control settings
type QualityParams struct {
	Mode             RateControlMode `toml:"mode" json:"mode"`
	TargetBitrate    *float64        `toml:"target_bitrate,omitempty" json:"target_bitrate,omitempty"` // Mbps
	MaxBitrate       *float64        `toml:"max_bitrate,omitempty" json:"max_bitrate,omitempty"`       // Mbps
	MinBitrate       *float64        `toml:"min_bitrate,omitempty" json:"min_bitrate,omitempty"`       // Mbps
	BufferSize       *float64        `toml:"buffer_size,omitempty" json:"buffer_size,omitempty"`       // Mbps
	Quality          *int            `toml:"quality,omitempty" json:"quality,omitempty"`               // 0-51 for CRF/CQP
	Preset           *string         `toml:"preset,omitempty" json:"preset,omitempty"`                 // fast, medium, slow
	BFrames          *int            `toml:"bframes,omitempty" json:"bframes,omitempty"`               // B-frame count
	KeyframeInterval *int            `toml:"keyframe_interval,omitempty" json:"keyframe_interval,omitempty"`
}

// BitrateParams builds CBR/VBR quality params from kbps values used by output profiles.
// A zero max rate yields CBR at the target rate.
func BitrateParams(targetKbps, maxKbps, bufferKbps int) *QualityParams {
	if targetKbps <= 0 {
		return nil
	}
	target := float64(targetKbps) / 1000
	q := &QualityParams{Mode: RateControlCBR, TargetBitrate: &target}
	if maxKbps > 0 && maxKbps != targetKbps {
		maxRate := float64(maxKbps) / 1000
		q.Mode = RateControlVBR
		q.MaxBitrate = &maxRate
	}
	if bufferKbps > 0 {
		buf := float64(bufferKbps) / 1000
		q.BufferSize = &buf
	}
	return q
}
