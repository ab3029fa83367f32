package drone

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/skyrl/godrone/utils/floatutils"
	"github.com/skyrl/godrone/utils/rotations"
)

// stateStarter samples the initial position/velocity block of a single
// drone, either stochastically or deterministically, and emits it in
// the simulator's layout: position, unit quaternion, pendulum angles
// for qpos and linear, angular, pendulum velocities for qvel.
//
// stateStarter implements environment.Starter.
type stateStarter struct {
	random   bool
	pendulum bool
	startPos []float64

	// sampling spreads, pre-scaled by the state difficulty
	maxPosOffset float64
	rpVariance   []float64
	velVariance  []float64
	angVelVar    []float64
	penRPVar     []float64
	penAngVelVar []float64

	rng *rand.Rand
	src rand.Source
}

func newStateStarter(cfg *Config, src rand.Source, rng *rand.Rand) *stateStarter {
	scale := func(variances []float64) []float64 {
		scaled := make([]float64, len(variances))
		for i, v := range variances {
			scaled[i] = v * cfg.StateDifficulty
		}
		return scaled
	}

	return &stateStarter{
		random:       cfg.RandomStartPos,
		pendulum:     cfg.Pendulum,
		startPos:     cfg.StartPos,
		maxPosOffset: cfg.MaxRandomOffset * cfg.StateDifficulty,
		rpVariance:   scale(cfg.RPVariance),
		velVariance:  scale(cfg.VelVariance),
		angVelVar:    scale(cfg.AngVelVariance),
		penRPVar:     scale(cfg.PendulumRPVariance),
		penAngVelVar: scale(cfg.PendulumAngVelVariance),
		rng:          rng,
		src:          src,
	}
}

// Start samples one drone's initial state. In stochastic mode the
// position offset is drawn uniformly from a sphere of radius
// maxPosOffset, the roll and pitch angles and all velocities come from
// zero-mean Gaussians clipped to ±2 standard deviations, and the yaw
// is uniform on (-π, π]. In deterministic mode the drone starts at
// the configured start pose with zero velocity.
func (s *stateStarter) Start() (qpos, qvel []float64) {
	if !s.random {
		quat := rotations.RPYToQuat(0, 0, s.startPos[3])
		qpos = append([]float64{}, s.startPos[:3]...)
		qpos = append(qpos, quat[:]...)

		qvel = make([]float64, 6)
		if s.pendulum {
			qpos = append(qpos, 0, 0)
			qvel = append(qvel, 0, 0)
		}
		return qpos, qvel
	}

	// Uniform density within the sphere requires the cube root of a
	// uniform radius fraction.
	stdNorm := distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}
	direction := []float64{stdNorm.Rand(), stdNorm.Rand(), stdNorm.Rand()}
	norm := floatutils.Norm(direction)
	if norm == 0 {
		direction, norm = []float64{1, 0, 0}, 1
	}
	r := s.maxPosOffset * math.Cbrt(s.rng.Float64())
	pos := make([]float64, 3)
	for i := range pos {
		pos[i] = s.startPos[i] + r*direction[i]/norm
	}

	rp := s.clippedNormals(s.rpVariance)
	yaw := math.Pi - 2*math.Pi*s.rng.Float64()
	quat := rotations.RPYToQuat(rp[0], rp[1], yaw)

	qpos = append(pos, quat[:]...)
	qvel = append(s.clippedNormals(s.velVariance),
		s.clippedNormals(s.angVelVar)...)

	if s.pendulum {
		qpos = append(qpos, s.clippedNormals(s.penRPVar)...)
		qvel = append(qvel, s.clippedNormals(s.penAngVelVar)...)
	}
	return qpos, qvel
}

// clippedNormals draws one zero-mean Gaussian per entry of sigmas,
// clipping each draw symmetrically to ±2 standard deviations
func (s *stateStarter) clippedNormals(sigmas []float64) []float64 {
	values := make([]float64, len(sigmas))
	for i, sigma := range sigmas {
		if sigma == 0 {
			continue
		}
		n := distuv.Normal{Mu: 0, Sigma: sigma, Src: s.src}
		values[i] = floatutils.Clip(n.Rand(), -2*sigma, 2*sigma)
	}
	return values
}
