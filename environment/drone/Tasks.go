package drone

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RewardFunc computes the reward for a single drone after a step,
// given the drone's new state, the action it took, and its step count
// since its last reset. Reward functions must treat the environment as
// read-only.
type RewardFunc func(d *Drone, state, action *mat.VecDense, numSteps int) float64

// TerminationFunc decides whether a single drone's episode ends on
// this step. Termination functions must treat the environment as
// read-only.
type TerminationFunc func(d *Drone, state, action *mat.VecDense, numSteps int) bool

// Built-in reward and termination function names, for selection from
// configuration files
const (
	HoverReward          = "hover"
	DistanceEnergyReward = "distance_energy"

	DistanceTermination  = "distance"
	StepLimitTermination = "step_limit"
)

// RewardByName returns the built-in reward function with the given
// name
func RewardByName(name string) (RewardFunc, error) {
	switch name {
	case HoverReward:
		return Hover, nil
	case DistanceEnergyReward:
		return DistanceEnergy, nil
	}
	return nil, fmt.Errorf("rewardByName: no such reward function %q", name)
}

// TerminationByName returns the built-in termination function with the
// given name
func TerminationByName(name string) (TerminationFunc, error) {
	switch name {
	case DistanceTermination:
		return TooFarOrTooLong, nil
	case StepLimitTermination:
		return TooLong, nil
	}
	return nil, fmt.Errorf("terminationByName: no such termination "+
		"function %q", name)
}

// referenceError returns the Euclidean distance between the drone's
// position and the reference position
func referenceError(d *Drone, state *mat.VecDense) float64 {
	var sum float64
	for i := 0; i < 3; i++ {
		diff := state.AtVec(i) - d.reference[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// Hover rewards staying close to the reference position
func Hover(d *Drone, state, action *mat.VecDense, numSteps int) float64 {
	return -referenceError(d, state)
}

// DistanceEnergy rewards staying close to the reference position while
// penalizing motor effort, with an alive bonus so that staying in the
// air dominates crashing early
func DistanceEnergy(d *Drone, state, action *mat.VecDense, numSteps int) float64 {
	return 1.0 - 0.5*referenceError(d, state) - 1e-3*mat.Dot(action, action)
}

// TooFarOrTooLong ends the episode when the drone strays further than
// the configured maximum distance from the reference position, or when
// the episode reaches the configured step limit
func TooFarOrTooLong(d *Drone, state, action *mat.VecDense, numSteps int) bool {
	return referenceError(d, state) > d.cfg.MaxDistance ||
		numSteps >= d.cfg.MaxSteps
}

// TooLong ends the episode at the configured step limit only
func TooLong(d *Drone, state, action *mat.VecDense, numSteps int) bool {
	return numSteps >= d.cfg.MaxSteps
}
