// Package trackers implements tracking of data generated while running
// an experiment on a vectorized environment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/skyrl/godrone/timestep"
)

// Tracker tracks data of interest from every batched timestep of an
// experiment and persists it afterwards
type Tracker interface {
	Track(step ts.VectorStep)
	Save() error
}

// Return tracks the episodic return of every agent in a vectorized
// environment. Rewards are accumulated per agent; whenever an agent's
// episode ends, by termination or truncation, that agent's return is
// recorded and its accumulator restarts.
//
// Note: an episode must finish for this Tracker to record its return.
// Episodes still in flight when the experiment ends are dropped.
type Return struct {
	current        []float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker for numAgents
// agents, saving to filename
func NewReturn(filename string, numAgents int) *Return {
	return &Return{
		current:  make([]float64, numAgents),
		filename: filename,
	}
}

// Track accumulates the rewards of a batched timestep
func (r *Return) Track(step ts.VectorStep) {
	if step.NumAgents() != len(r.current) {
		panic(fmt.Sprintf("track: step has %v agents, tracker expects %v",
			step.NumAgents(), len(r.current)))
	}

	for i := 0; i < step.NumAgents(); i++ {
		r.current[i] += step.Rewards[i]
		if step.Over(i) {
			r.episodeReturns = append(r.episodeReturns, r.current[i])
			r.current[i] = 0
		}
	}
}

// Returns returns the episodic returns recorded so far, in completion
// order
func (r *Return) Returns() []float64 {
	return append([]float64{}, r.episodeReturns...)
}

// Save saves the recorded episodic returns to disk
func (r *Return) Save() error {
	file, err := os.Create(r.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(r.episodeReturns); err != nil {
		return fmt.Errorf("save: could not encode return data: %v", err)
	}
	return nil
}

// LoadReturns loads episodic returns previously written by Save
func LoadReturns(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadReturns: %v", err)
	}
	defer file.Close()

	var returns []float64
	de := gob.NewDecoder(file)
	if err := de.Decode(&returns); err != nil {
		return nil, fmt.Errorf("loadReturns: could not decode return "+
			"data: %v", err)
	}
	return returns, nil
}
