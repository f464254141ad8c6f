package hardware

import (
	"slices"

	"github.com/smazurov/playoutnode/internal/ffmpeg/state"
)

// preferenceOrder is the auto selection order; videotoolbox is only
// considered on darwin.
var preferenceOrder = []state.HardwareAccel{
	state.HardwareNvenc,
	state.HardwareQsv,
	state.HardwareVaapi,
	state.HardwareAmf,
	state.HardwareRkmpp,
	state.HardwareV4l2m2m,
}

// PreferenceOrder returns the auto selection order for platform.
func PreferenceOrder(platform string) []state.HardwareAccel {
	if platform == "darwin" {
		return append([]state.HardwareAccel{state.HardwareVideoToolbox}, preferenceOrder...)
	}
	return slices.Clone(preferenceOrder)
}

// IsAuto reports whether override asks for automatic selection.
func IsAuto(override string) bool {
	return override == "" || override == "auto"
}

// ResolvePreferred picks the accelerator new pipelines use. An explicit
// override wins when it is available and yields none otherwise; "auto" or
// empty walks the platform preference order. The result depends only on its
// arguments.
func ResolvePreferred(available []state.HardwareAccel, override, platform string) state.HardwareAccel {
	if !IsAuto(override) {
		accel, ok := state.ParseHardwareAccel(override)
		if !ok || !slices.Contains(available, accel) {
			return state.HardwareNone
		}
		return accel
	}
	for _, accel := range PreferenceOrder(platform) {
		if slices.Contains(available, accel) {
			return accel
		}
	}
	return state.HardwareNone
}
