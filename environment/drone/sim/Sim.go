// Package sim defines the interfaces through which the drone
// environment consumes an external physics simulator. The environment
// never touches the physics engine directly: it hands a Builder the
// per-drone physical parameters and receives a live Simulator exposing
// the raw state arrays.
package sim

// Params holds the physical constants of a single drone. Params are
// immutable once generated; the environment regenerates them in batch.
//
// Values are flattened into each drone's state observation in the
// field order below, so the order is part of the observation layout
// consumed by policies and must not change.
type Params struct {
	Mass        float64 // drone mass in kilograms
	ArmLen      float64 // arm length in meters
	MotorForce  float64 // maximum motor force in Newtons
	MotorTau    float64 // motor time constant in seconds
	PendulumLen float64 // pendulum length in meters, 0 if no pendulum
	WeightMass  float64 // pendulum weight mass in kilograms, 0 if no pendulum
}

// NumValues is the number of physical constants per drone
const NumValues = 6

// Values returns the parameter values flattened in their fixed order
func (p Params) Values() []float64 {
	return []float64{
		p.Mass,
		p.ArmLen,
		p.MotorForce,
		p.MotorTau,
		p.PendulumLen,
		p.WeightMass,
	}
}

// Simulator is a live physics simulation of a batch of drones. The
// position, velocity, sensor, and actuator arrays are laid out
// contiguously per drone with fixed strides; the environment slices
// them by index arithmetic.
//
// A Simulator is owned by exactly one environment instance and is not
// safe for concurrent use.
type Simulator interface {
	// Step advances the simulation by nFrames physics sub-steps with
	// the given control vector applied. The control vector holds four
	// motor commands per drone, ordered by drone index.
	Step(ctrl []float64, nFrames int) error

	// QPos returns a copy of the full position array
	QPos() []float64

	// QVel returns a copy of the full velocity array
	QVel() []float64

	// SensorData returns a copy of the sensor array, three
	// accelerometer readings per drone
	SensorData() []float64

	// Act returns a copy of the actuator activation array, four
	// entries per drone
	Act() []float64

	// SetState overwrites the full position and velocity arrays
	SetState(qpos, qvel []float64) error

	// SetMocap places the motion-capture marker at the given index at
	// pos with orientation quat (w, x, y, z)
	SetMocap(index int, pos [3]float64, quat [4]float64) error

	Close() error
}

// Builder constructs a Simulator from a batch of drone parameters.
// Build corresponds to generating a model description from the
// parameters and loading it into the physics engine. It is called once
// at environment construction and again on every parameter
// regeneration, after the previous Simulator has been closed.
type Builder interface {
	Build(params []Params, frequency, mocaps int) (Simulator, error)
}
