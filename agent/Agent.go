// Package agent defines the policy surface that the experiment loop
// drives a vectorized environment with. The actual learning algorithm
// lives outside this repository and is consumed only through the
// VectorPolicy interface; the built-in policies here exist for rollout
// smoke tests and baselines.
package agent

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VectorPolicy selects one action per agent given the current batch of
// observations
type VectorPolicy interface {
	SelectActions(obs []*mat.VecDense) []*mat.VecDense
}

// UniformRandom selects each action component uniformly at random
// from [0, 1], independently per agent
type UniformRandom struct {
	actionDims int
	dist       distuv.Uniform
}

// NewUniformRandom returns a UniformRandom policy emitting actions
// with actionDims components
func NewUniformRandom(actionDims int, seed uint64) *UniformRandom {
	return &UniformRandom{
		actionDims: actionDims,
		dist: distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: rand.NewSource(seed),
		},
	}
}

// SelectActions satisfies the VectorPolicy interface
func (u *UniformRandom) SelectActions(obs []*mat.VecDense) []*mat.VecDense {
	actions := make([]*mat.VecDense, len(obs))
	for i := range actions {
		action := make([]float64, u.actionDims)
		for j := range action {
			action[j] = u.dist.Rand()
		}
		actions[i] = mat.NewVecDense(u.actionDims, action)
	}
	return actions
}

// ConstantThrottle applies the same fixed throttle fraction to every
// motor of every agent. A throttle near hover keeps drones airborne
// long enough to exercise full episodes.
type ConstantThrottle struct {
	actionDims int
	level      float64
}

// NewConstantThrottle returns a ConstantThrottle policy
func NewConstantThrottle(actionDims int, level float64) *ConstantThrottle {
	return &ConstantThrottle{actionDims: actionDims, level: level}
}

// SelectActions satisfies the VectorPolicy interface
func (c *ConstantThrottle) SelectActions(obs []*mat.VecDense) []*mat.VecDense {
	actions := make([]*mat.VecDense, len(obs))
	for i := range actions {
		action := make([]float64, c.actionDims)
		for j := range action {
			action[j] = c.level
		}
		actions[i] = mat.NewVecDense(c.actionDims, action)
	}
	return actions
}
