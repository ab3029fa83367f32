package drone

import (
	"math"

	"github.com/skyrl/godrone/utils/floatutils"
)

// Gamepad is a source of normalized analog axis values in [-1, 1],
// keyed by axis index. Poll returns ok == false when no device is
// connected, in which case the environment holds the reference at its
// last value.
type Gamepad interface {
	Poll() (axes map[int]float64, ok bool)
}

// Gamepad axis assignment. The y, z, and yaw axes are inverted so that
// pushing a stick forward or up moves the reference in the positive
// direction.
const (
	axisX   = 0
	axisY   = 1
	axisYaw = 2
	axisZ   = 3
)

// Reference steering tunables. A stick pair only acts when its overall
// magnitude exceeds pairDeadzone; each axis then has axisDeadzone
// subtracted from its magnitude before the gain is applied. The
// resulting position is kept inside a fixed box around the start
// position.
const (
	pairDeadzone = 0.2
	axisDeadzone = 0.1
	steerGain    = 0.1

	boxXY = 5.0
	boxZ  = 6.0
)

// steerReference applies one gamepad reading to the shared reference
// vector and returns the new reference. The yaw component is wrapped
// to (-π, π] and the position components are clipped to the steering
// box centered on startPos.
func steerReference(reference []float64, axes map[int]float64,
	startPos []float64) []float64 {
	pert := [4]float64{
		axes[axisX],
		-axes[axisY],
		-axes[axisZ],
		-axes[axisYaw],
	}

	xyActive := math.Hypot(pert[0], pert[1]) > pairDeadzone
	zyawActive := math.Hypot(pert[2], pert[3]) > pairDeadzone

	for i := range pert {
		active := xyActive
		if i >= 2 {
			active = zyawActive
		}
		if !active {
			pert[i] = 0
			continue
		}
		mag := math.Max(math.Abs(pert[i])-axisDeadzone, 0)
		pert[i] = steerGain * mag * floatutils.Sign(pert[i])
	}

	next := make([]float64, 4)
	for i := range next {
		next[i] = reference[i] + pert[i]
	}

	next[3] = floatutils.WrapPi(next[3])
	next[0] = floatutils.Clip(next[0], startPos[0]-boxXY, startPos[0]+boxXY)
	next[1] = floatutils.Clip(next[1], startPos[1]-boxXY, startPos[1]+boxXY)
	next[2] = floatutils.Clip(next[2], startPos[2]-boxZ, startPos[2]+boxZ)

	return next
}
