package drone

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/skyrl/godrone/environment/drone/sim"
	"github.com/skyrl/godrone/utils/rotations"
)

// Per-drone block sizes in the simulator's raw arrays. A drone's free
// joint occupies 3 position + 4 quaternion entries in qpos and 3
// linear + 3 angular entries in qvel; the pendulum hinge pair adds two
// entries to each. Every drone carries one 3-axis accelerometer and
// four motor actuators.
const (
	freeJointPos = 7
	freeJointVel = 6
	pendulumPos  = 2
	pendulumVel  = 2
	sensorStride = 3
	actStride    = 4
	referenceLen = 4
)

// strides describes the per-drone layout of the raw simulation state.
// It is computed once at construction; the reset and step logic depend
// on these offsets staying fixed for the lifetime of the model.
type strides struct {
	pos      int // qpos entries per drone
	vel      int // qvel entries per drone
	baseDims int // observation entries per drone, excluding parameters
}

func newStrides(pendulum bool) strides {
	st := strides{pos: freeJointPos, vel: freeJointVel, baseDims: 23}
	if pendulum {
		st.pos += pendulumPos
		st.vel += pendulumVel
		st.baseDims = 27
	}

	// Internal consistency between the stride arithmetic and the
	// observation layout. Not user-triggerable.
	wantDims := 3 + 3 + 3 + 3 + sensorStride + actStride + referenceLen +
		(st.pos - freeJointPos) + (st.vel - freeJointVel)
	if st.baseDims != wantDims {
		panic(fmt.Sprintf("newStrides: observation dims %v disagree with "+
			"raw state strides (want %v)", st.baseDims, wantDims))
	}
	return st
}

// check asserts that the raw state arrays have exactly one stride per
// drone. A mismatch means the generated model and the configuration
// disagree, which is a programming error, not a runtime condition.
func (st strides) check(numDrones, qposLen, qvelLen int) {
	if qposLen != numDrones*st.pos {
		panic(fmt.Sprintf("strides: qpos length %v does not match %v drones "+
			"of stride %v", qposLen, numDrones, st.pos))
	}
	if qvelLen != numDrones*st.vel {
		panic(fmt.Sprintf("strides: qvel length %v does not match %v drones "+
			"of stride %v", qvelLen, numDrones, st.vel))
	}
}

// rawState is a snapshot of the simulator's flat state arrays
type rawState struct {
	qpos   []float64
	qvel   []float64
	sensor []float64
	act    []float64
}

// extractState slices drone i's block out of the raw simulation state
// and assembles its observation vector. The concatenation order is
// fixed: position, roll-pitch-yaw, linear velocity, angular velocity,
// pendulum angles and angular velocity when enabled, acceleration,
// actuator state, reference vector, and the drone's parameter values.
// Policies learn against this exact layout, so the order is part of
// the environment's contract.
func extractState(raw rawState, i int, st strides, pendulum bool,
	reference []float64, params sim.Params) *mat.VecDense {
	qpos := raw.qpos[i*st.pos : (i+1)*st.pos]
	qvel := raw.qvel[i*st.vel : (i+1)*st.vel]

	var quat [4]float64
	copy(quat[:], qpos[3:7])
	roll, pitch, yaw := rotations.QuatToRPY(quat)

	values := make([]float64, 0, st.baseDims+sim.NumValues)
	values = append(values, qpos[:3]...)
	values = append(values, roll, pitch, yaw)
	values = append(values, qvel[:3]...)
	// The angular velocity axis ordering is defined by the engine's
	// free joint convention.
	values = append(values, qvel[3:6]...)
	if pendulum {
		values = append(values, qpos[7:]...)
		values = append(values, qvel[6:]...)
	}
	values = append(values, raw.sensor[i*sensorStride:(i+1)*sensorStride]...)
	values = append(values, raw.act[i*actStride:(i+1)*actStride]...)
	values = append(values, reference...)
	values = append(values, params.Values()...)

	return mat.NewVecDense(len(values), values)
}
