// Package timestep implements timesteps of the agent-environment
// interaction for batched, multi-agent environments
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a step can be, either a first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// Info holds auxiliary per-agent data emitted by an environment on a
// step. Most environments emit empty Infos.
type Info map[string]interface{}

// VectorStep packages together a single batched timestep of a
// vectorized environment. Each field is ordered by agent index and all
// fields have one entry per agent.
//
// Dones reports ordinary episode termination for each agent, while
// Truncated reports episodes that were cut short by an external event,
// such as a step limit or a physics-model regeneration. The two are
// kept separate because value-based learners bootstrap differently
// from truncated and terminated states.
type VectorStep struct {
	Observations []*mat.VecDense
	Rewards      []float64
	Dones        []bool
	Truncated    []bool
	Infos        []Info
	Number       int
}

// NewVector returns a VectorStep with all per-agent fields allocated
// for n agents. Dones and Truncated start false and Infos start empty.
func NewVector(n, number int) VectorStep {
	infos := make([]Info, n)
	for i := range infos {
		infos[i] = Info{}
	}

	return VectorStep{
		Observations: make([]*mat.VecDense, n),
		Rewards:      make([]float64, n),
		Dones:        make([]bool, n),
		Truncated:    make([]bool, n),
		Infos:        infos,
		Number:       number,
	}
}

// NumAgents returns the number of agents in the batch
func (v VectorStep) NumAgents() int {
	return len(v.Observations)
}

// Over returns whether agent i's episode ended on this step, either by
// termination or truncation
func (v VectorStep) Over(i int) bool {
	return v.Dones[i] || v.Truncated[i]
}

func (v VectorStep) String() string {
	return fmt.Sprintf("VectorStep | Agents: %v  |  Step Number: %v",
		v.NumAgents(), v.Number)
}
