// Package rotations converts between the roll-pitch-yaw and unit
// quaternion representations of 3D orientation. Quaternions use the
// scalar-first (w, x, y, z) ordering that MuJoCo expects, and Euler
// angles follow the aerospace Z-Y-X (yaw-pitch-roll) convention.
package rotations

import (
	"math"

	"github.com/skyrl/godrone/utils/floatutils"
)

// RPYToQuat converts roll, pitch, and yaw angles in radians to a unit
// quaternion in (w, x, y, z) order.
func RPYToQuat(roll, pitch, yaw float64) [4]float64 {
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)

	return [4]float64{
		cr*cp*cy + sr*sp*sy,
		sr*cp*cy - cr*sp*sy,
		cr*sp*cy + sr*cp*sy,
		cr*cp*sy - sr*sp*cy,
	}
}

// QuatToRPY converts a unit quaternion in (w, x, y, z) order to roll,
// pitch, and yaw angles in radians. The pitch argument of asin is
// clipped to [-1, 1] so that quaternions which are not perfectly
// normalized due to floating point error do not produce NaN.
func QuatToRPY(quat [4]float64) (roll, pitch, yaw float64) {
	w, x, y, z := quat[0], quat[1], quat[2], quat[3]

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch = math.Asin(floatutils.Clip(2*(w*y-z*x), -1.0, 1.0))
	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return roll, pitch, yaw
}
