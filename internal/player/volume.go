package player

import (
	"math"

	"github.com/gopxl/beep/v2/effects"
)

// MaxVolumeKey is the loudest volume key.
const MaxVolumeKey = 9

// VolumeGain maps a volume key 0-9 to a linear gain: (v/9)^2.
func VolumeGain(v int) float64 {
	if v <= 0 {
		return 0
	}
	if v >= MaxVolumeKey {
		return 1
	}
	x := float64(v) / MaxVolumeKey
	return x * x
}

// applyGain sets a base-2 volume effect to the linear gain.
func applyGain(v *effects.Volume, gain float64) {
	if gain <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(gain)
}
