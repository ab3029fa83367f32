// Package drone implements a vectorized quadrotor environment. A
// single environment instance steps a batch of simulated drones,
// optionally carrying suspended pendulum payloads, through a shared
// physics model. Each drone tracks a common reference trajectory which
// is either held constant or driven live from a gamepad.
//
// The physical parameters of every drone are sampled from configured
// intervals and can be periodically resampled during long training
// runs (domain randomization), which rebuilds the physics model and
// cuts every drone's episode via truncation.
package drone

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/skyrl/godrone/environment"
	"github.com/skyrl/godrone/environment/drone/sim"
	"github.com/skyrl/godrone/timestep"
	"github.com/skyrl/godrone/utils/floatutils"
	"github.com/skyrl/godrone/utils/rotations"
)

// Control signals are mapped from the nominal [0, 1] action range into
// [ctrlOffset, ctrlOffset+ctrlScale] so that motors never receive a
// near-zero command.
const (
	ctrlOffset = 0.1
	ctrlScale  = 0.9

	actionDims = 4
)

// Drone is a vectorized quadrotor environment. It owns the simulator,
// the per-drone physical parameters, the shared reference vector, and
// the episode counters. Drone implements environment.VectorEnvironment.
//
// A Drone is not safe for concurrent use: one StepAll, ResetAll, or
// ResetAt call must fully complete before another may begin.
type Drone struct {
	cfg     *Config
	builder sim.Builder
	sim     sim.Simulator
	gamepad Gamepad
	logger  *zap.Logger

	src rand.Source
	rng *rand.Rand

	starter *stateStarter
	params  []sim.Params
	st      strides

	// reference is the shared (x, y, z, yaw) target. It is scoped to
	// this instance and mutated only by the reference controller.
	reference  []float64
	controlled bool

	numSteps   []int // per-drone steps since that drone's last reset
	totalSteps int   // steps since the last parameter regeneration

	states []*mat.VecDense
	closed bool
}

// New constructs a Drone environment from a validated configuration, a
// simulator builder, and an optional gamepad and logger. The gamepad
// may be nil; if controlled mode is requested without a connected
// gamepad, the environment downgrades to a constant reference and logs
// a notice rather than failing.
func New(cfg *Config, builder sim.Builder, pad Gamepad,
	logger *zap.Logger) (*Drone, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid config: %v", err)
	}

	controlled := cfg.Controlled
	if controlled {
		logger.Info("initializing reference controller")
		connected := false
		if pad != nil {
			_, connected = pad.Poll()
		}
		if !connected {
			controlled = false
			logger.Warn("no input device connected, disabling reference control")
		}
	}

	src := rand.NewSource(cfg.Seed)
	rng := rand.New(src)

	d := &Drone{
		cfg:        cfg,
		builder:    builder,
		gamepad:    pad,
		logger:     logger,
		src:        src,
		rng:        rng,
		starter:    newStateStarter(cfg, src, rng),
		st:         newStrides(cfg.Pendulum),
		reference:  append([]float64{}, cfg.Reference...),
		controlled: controlled,
		numSteps:   make([]int, cfg.NumDrones),
	}

	d.params = generateParams(cfg, src)

	s, err := builder.Build(d.params, cfg.Frequency, cfg.Mocaps)
	if err != nil {
		return nil, fmt.Errorf("new: could not build simulation: %v", err)
	}
	d.sim = s

	if err := d.resetModel(false); err != nil {
		s.Close()
		return nil, fmt.Errorf("new: %v", err)
	}

	logger.Info("environment ready",
		zap.Int("drones", cfg.NumDrones),
		zap.Bool("pendulum", cfg.Pendulum),
		zap.Bool("controlled", controlled),
		zap.Int("observationDims", d.obsLen()),
	)
	return d, nil
}

// NumAgents returns the number of drones in the batch
func (d *Drone) NumAgents() int {
	return d.cfg.NumDrones
}

// Reference returns a copy of the current shared reference vector
// (x, y, z, yaw)
func (d *Drone) Reference() []float64 {
	return append([]float64{}, d.reference...)
}

// Params returns the current physical parameters of every drone
func (d *Drone) Params() []sim.Params {
	return append([]sim.Params{}, d.params...)
}

// obsLen returns the length of one drone's observation vector
func (d *Drone) obsLen() int {
	return d.st.baseDims + sim.NumValues
}

// StepAll advances every drone by one policy step. Each action is a
// 4-vector of motor throttle fractions in [0, 1].
//
// Per-drone termination is reported through the Truncated flags; the
// Dones flags stay false so that learners never bootstrap from a
// terminal value estimate of these states. When parameter
// regeneration triggers, every drone's episode is cut on that exact
// step and the returned observations come from freshly reset states.
func (d *Drone) StepAll(actions []*mat.VecDense) (timestep.VectorStep, error) {
	if d.closed {
		return timestep.VectorStep{}, fmt.Errorf("stepAll: environment closed")
	}
	if len(actions) != d.cfg.NumDrones {
		panic(fmt.Sprintf("stepAll: invalid number of actions \n\thave(%v) "+
			"\n\twant(%v)", len(actions), d.cfg.NumDrones))
	}

	if d.controlled {
		d.controlReference()
	} else {
		d.syncReferenceMarker()
	}

	ctrl := make([]float64, 0, actionDims*d.cfg.NumDrones)
	for i, action := range actions {
		if action.Len() != actionDims {
			panic(fmt.Sprintf("stepAll: invalid action dimensions for "+
				"drone %v \n\thave(%v) \n\twant(%v)", i, action.Len(),
				actionDims))
		}
		for j := 0; j < actionDims; j++ {
			throttle := floatutils.Clip(action.AtVec(j), 0, 1)
			ctrl = append(ctrl, ctrlOffset+ctrlScale*throttle)
		}
	}

	if err := d.sim.Step(ctrl, d.cfg.SkipSteps); err != nil {
		return timestep.VectorStep{}, fmt.Errorf("stepAll: %v", err)
	}

	for i := range d.numSteps {
		d.numSteps[i]++
	}
	d.totalSteps++

	d.refreshStates()
	stepped := d.states

	step := timestep.NewVector(d.cfg.NumDrones, d.totalSteps)
	for i := 0; i < d.cfg.NumDrones; i++ {
		step.Truncated[i] = d.cfg.Terminated(d, stepped[i], actions[i],
			d.numSteps[i])
		step.Rewards[i] = d.cfg.Reward(d, stepped[i], actions[i],
			d.numSteps[i])
	}

	if d.cfg.RandomParams && d.cfg.RegenSteps > 0 &&
		d.totalSteps == d.cfg.RegenSteps {
		d.totalSteps = 0
		if err := d.resetModel(true); err != nil {
			return timestep.VectorStep{}, fmt.Errorf("stepAll: %v", err)
		}
		for i := range step.Truncated {
			step.Truncated[i] = true
		}
	}

	copy(step.Observations, d.states)
	return step, nil
}

// ResetAll resets every drone to a freshly sampled initial state. The
// physical parameters are not resampled here; that only happens at
// construction and at the regeneration interval.
func (d *Drone) ResetAll() ([]*mat.VecDense, []timestep.Info, error) {
	if d.closed {
		return nil, nil, fmt.Errorf("resetAll: environment closed")
	}
	if err := d.resetModel(false); err != nil {
		return nil, nil, fmt.Errorf("resetAll: %v", err)
	}

	infos := make([]timestep.Info, d.cfg.NumDrones)
	for i := range infos {
		infos[i] = timestep.Info{}
	}
	return d.states, infos, nil
}

// ResetAt resets the single drone at the given index, splicing a fresh
// state into its slot of the shared raw state. All other drones keep
// their simulation state and step counters.
func (d *Drone) ResetAt(index int) (*mat.VecDense, timestep.Info, error) {
	if d.closed {
		return nil, nil, fmt.Errorf("resetAt: environment closed")
	}
	if index < 0 || index >= d.cfg.NumDrones {
		panic(fmt.Sprintf("resetAt: drone index %v out of range [0, %v)",
			index, d.cfg.NumDrones))
	}

	qpos := d.sim.QPos()
	qvel := d.sim.QVel()
	d.st.check(d.cfg.NumDrones, len(qpos), len(qvel))

	qposI, qvelI := d.starter.Start()
	copy(qpos[index*d.st.pos:(index+1)*d.st.pos], qposI)
	copy(qvel[index*d.st.vel:(index+1)*d.st.vel], qvelI)

	if err := d.sim.SetState(qpos, qvel); err != nil {
		return nil, nil, fmt.Errorf("resetAt: %v", err)
	}
	d.numSteps[index] = 0
	d.refreshStates()

	return d.states[index], timestep.Info{}, nil
}

// Observations returns the last-computed batch of drone states
func (d *Drone) Observations() []*mat.VecDense {
	return d.states
}

// Close releases the underlying simulation. The environment cannot be
// used afterwards.
func (d *Drone) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.sim.Close()
}

// ObservationSpec returns the per-drone observation specification
func (d *Drone) ObservationSpec() environment.Spec {
	obsLen := d.obsLen()
	low := make([]float64, obsLen)
	high := make([]float64, obsLen)
	for i := range low {
		low[i] = math.Inf(-1)
		high[i] = math.Inf(1)
	}

	return environment.NewSpec(mat.NewVecDense(obsLen, nil),
		environment.Observation, mat.NewVecDense(obsLen, low),
		mat.NewVecDense(obsLen, high), environment.Continuous)
}

// ActionSpec returns the per-drone action specification: four motor
// throttle fractions in [0, 1]
func (d *Drone) ActionSpec() environment.Spec {
	low := mat.NewVecDense(actionDims, nil)
	high := mat.NewVecDense(actionDims, []float64{1, 1, 1, 1})

	return environment.NewSpec(mat.NewVecDense(actionDims, nil),
		environment.Action, low, high, environment.Continuous)
}

// RewardSpec returns the reward specification
func (d *Drone) RewardSpec() environment.Spec {
	low := mat.NewVecDense(1, []float64{math.Inf(-1)})
	high := mat.NewVecDense(1, []float64{math.Inf(1)})

	return environment.NewSpec(mat.NewVecDense(1, nil), environment.Reward,
		low, high, environment.Continuous)
}

// resetModel samples fresh initial states for every drone and writes
// them into the raw simulation state. When regen is true the physical
// parameters are resampled first and the model is rebuilt: the old
// simulation is fully released before the new one is constructed.
func (d *Drone) resetModel(regen bool) error {
	if regen {
		d.params = generateParams(d.cfg, d.src)
		if err := d.sim.Close(); err != nil {
			return fmt.Errorf("resetModel: could not release old "+
				"simulation: %v", err)
		}
		s, err := d.builder.Build(d.params, d.cfg.Frequency, d.cfg.Mocaps)
		if err != nil {
			return fmt.Errorf("resetModel: could not rebuild simulation: %v",
				err)
		}
		d.sim = s
		d.logger.Info("regenerated drone parameters",
			zap.Int("drones", d.cfg.NumDrones))
	}

	qpos := d.sim.QPos()
	qvel := d.sim.QVel()
	d.st.check(d.cfg.NumDrones, len(qpos), len(qvel))

	for i := 0; i < d.cfg.NumDrones; i++ {
		qposI, qvelI := d.starter.Start()
		copy(qpos[i*d.st.pos:(i+1)*d.st.pos], qposI)
		copy(qvel[i*d.st.vel:(i+1)*d.st.vel], qvelI)
	}

	if err := d.sim.SetState(qpos, qvel); err != nil {
		return fmt.Errorf("resetModel: %v", err)
	}
	for i := range d.numSteps {
		d.numSteps[i] = 0
	}
	d.refreshStates()
	return nil
}

// refreshStates re-extracts every drone's observation from the current
// raw simulation state
func (d *Drone) refreshStates() {
	raw := rawState{
		qpos:   d.sim.QPos(),
		qvel:   d.sim.QVel(),
		sensor: d.sim.SensorData(),
		act:    d.sim.Act(),
	}

	states := make([]*mat.VecDense, d.cfg.NumDrones)
	for i := range states {
		states[i] = extractState(raw, i, d.st, d.cfg.Pendulum, d.reference,
			d.params[i])
	}
	d.states = states
}

// controlReference reads the gamepad and applies the perturbation to
// the shared reference vector
func (d *Drone) controlReference() {
	axes, ok := d.gamepad.Poll()
	if ok {
		d.reference = steerReference(d.reference, axes, d.cfg.StartPos)
	}
	d.syncReferenceMarker()
}

// syncReferenceMarker pushes the current reference pose to the visual
// marker at mocap index 0
func (d *Drone) syncReferenceMarker() {
	quat := rotations.RPYToQuat(0, 0, d.reference[3])
	pos := [3]float64{d.reference[0], d.reference[1], d.reference[2]}
	if err := d.sim.SetMocap(0, pos, quat); err != nil {
		d.logger.Warn("could not move reference marker", zap.Error(err))
	}
}
