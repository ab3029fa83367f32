// Package experiment implements functionality for running rollout
// collection on a vectorized environment
package experiment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/skyrl/godrone/agent"
	env "github.com/skyrl/godrone/environment"
	"github.com/skyrl/godrone/experiment/trackers"
)

// VectorOnline runs a policy against a vectorized environment for a
// fixed number of batched steps, resetting individual agents as their
// episodes end. Every batched timestep is sent to the registered
// Trackers.
type VectorOnline struct {
	environment env.VectorEnvironment
	policy      agent.VectorPolicy
	maxSteps    int
	trackers    []trackers.Tracker
	logger      *zap.Logger
}

// NewVectorOnline creates and returns a new online experiment on a
// given vectorized environment with a given policy. The steps
// parameter determines how many batched timesteps the experiment runs
// for.
func NewVectorOnline(e env.VectorEnvironment, p agent.VectorPolicy,
	steps int, logger *zap.Logger, t ...trackers.Tracker) *VectorOnline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VectorOnline{
		environment: e,
		policy:      p,
		maxSteps:    steps,
		trackers:    t,
		logger:      logger,
	}
}

// Register registers a Tracker with the experiment so that data
// generated during the experiment can be tracked and saved
func (v *VectorOnline) Register(t trackers.Tracker) {
	v.trackers = append(v.trackers, t)
}

// Run runs the entire experiment for all batched timesteps
func (v *VectorOnline) Run() error {
	obs, _, err := v.environment.ResetAll()
	if err != nil {
		return fmt.Errorf("run: %v", err)
	}

	logEvery := v.maxSteps / 10
	if logEvery == 0 {
		logEvery = 1
	}

	for i := 1; i <= v.maxSteps; i++ {
		actions := v.policy.SelectActions(obs)
		step, err := v.environment.StepAll(actions)
		if err != nil {
			return fmt.Errorf("run: step %v: %v", i, err)
		}

		for _, t := range v.trackers {
			t.Track(step)
		}

		for j := 0; j < step.NumAgents(); j++ {
			if step.Over(j) {
				if _, _, err := v.environment.ResetAt(j); err != nil {
					return fmt.Errorf("run: could not reset agent %v: %v",
						j, err)
				}
			}
		}
		obs = v.environment.Observations()

		if i%logEvery == 0 {
			v.logger.Info("experiment progress",
				zap.Int("step", i),
				zap.Int("maxSteps", v.maxSteps),
			)
		}
	}
	return nil
}

// Save saves all the data cached by the registered Trackers to disk
func (v *VectorOnline) Save() error {
	for _, t := range v.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}
