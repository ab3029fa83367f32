// Package environment outlines the interfaces needed to implement
// concrete vectorized environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/skyrl/godrone/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for a single agent in an environment
type Starter interface {
	Start() (qpos, qvel []float64)
}

// VectorEnvironment implements a simulated environment which steps a
// batch of agents in lockstep. All batched arguments and results are
// ordered by agent index. Calls are synchronous: one StepAll or
// ResetAll call fully completes before another may begin.
type VectorEnvironment interface {
	// StepAll advances every agent by one policy step given one action
	// per agent
	StepAll(actions []*mat.VecDense) (timestep.VectorStep, error)

	// ResetAll resets every agent to a freshly sampled initial state
	// and returns the new observations
	ResetAll() ([]*mat.VecDense, []timestep.Info, error)

	// ResetAt resets the single agent at the given index, leaving all
	// other agents untouched
	ResetAt(index int) (*mat.VecDense, timestep.Info, error)

	// Observations returns the last-computed batch of observations
	Observations() []*mat.VecDense

	NumAgents() int
	ObservationSpec() Spec
	ActionSpec() Spec
	RewardSpec() Spec

	Close() error
}
