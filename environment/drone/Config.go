package drone

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Interval describes the distribution of one physical quantity as a
// (center, half-width) pair. Sampled values lie within
// [center - halfWidth*difficulty, center + halfWidth*difficulty].
type Interval struct {
	Center    float64 `yaml:"center"`
	HalfWidth float64 `yaml:"half_width"`
}

// Config enumerates every recognized option of the drone environment
// together with its default. Unknown keys in a config file are
// rejected at load time so that typos surface early instead of
// silently falling back to defaults.
type Config struct {
	Seed uint64 `yaml:"seed"`

	// Frequency is the physics simulator frequency in Hz. SkipSteps is
	// the number of physics sub-steps per policy step.
	Frequency int `yaml:"frequency"`
	SkipSteps int `yaml:"skip_steps"`

	NumDrones int `yaml:"num_drones"`

	// Mocaps is the number of externally controlled marker bodies
	// inside the simulation. The reference marker occupies index 0.
	Mocaps int `yaml:"mocaps"`

	// Pendulum toggles the suspended-mass sub-system on every drone,
	// adding two position and two velocity dimensions per drone.
	Pendulum bool `yaml:"pendulum"`

	// Controlled enables driving the shared reference trajectory from
	// a connected gamepad instead of holding it constant.
	Controlled bool `yaml:"controlled"`

	RandomStartPos bool `yaml:"random_start_pos"`
	RandomParams   bool `yaml:"random_params"`

	// Reference and StartPos are (x, y, z, yaw) vectors
	Reference []float64 `yaml:"reference"`
	StartPos  []float64 `yaml:"start_pos"`

	// MaxDistance is the termination distance from the reference used
	// by the built-in termination function
	MaxDistance float64 `yaml:"max_distance"`

	// MaxSteps is the maximum length of a single episode
	MaxSteps int `yaml:"max_steps"`

	// RegenSteps regenerates the drone parameters and rebuilds the
	// model after this many total steps. Zero disables regeneration.
	RegenSteps int `yaml:"regen_env_at_steps"`

	// StateDifficulty scales the initial-state sampling spread and
	// ParamDifficulty scales the physical-parameter sampling spread
	StateDifficulty float64 `yaml:"state_difficulty"`
	ParamDifficulty float64 `yaml:"param_difficulty"`

	// MaxRandomOffset is the radius of the sphere around StartPos that
	// random initial positions are drawn from, before difficulty
	// scaling
	MaxRandomOffset float64 `yaml:"max_random_offset"`

	RPVariance             []float64 `yaml:"rp_variance"`
	VelVariance            []float64 `yaml:"vel_variance"`
	AngVelVariance         []float64 `yaml:"ang_vel_variance"`
	PendulumRPVariance     []float64 `yaml:"pendulum_rp_variance"`
	PendulumAngVelVariance []float64 `yaml:"pendulum_ang_vel_variance"`

	MassInterval        Interval `yaml:"mass_interval"`
	ArmLenInterval      Interval `yaml:"arm_len_interval"`
	MotorForceInterval  Interval `yaml:"motor_force_interval"`
	MotorTauInterval    Interval `yaml:"motor_tau_interval"`
	PendulumLenInterval Interval `yaml:"pendulum_length_interval"`
	WeightMassInterval  Interval `yaml:"weight_mass_interval"`

	// RewardName and TerminationName select built-in reward and
	// termination functions by name. Reward and Terminated, when set
	// programmatically, take precedence over the names.
	RewardName      string `yaml:"reward"`
	TerminationName string `yaml:"termination"`

	Reward     RewardFunc      `yaml:"-"`
	Terminated TerminationFunc `yaml:"-"`
}

// DefaultConfig returns the configuration that every unset option
// falls back to
func DefaultConfig() *Config {
	return &Config{
		Seed:                   42,
		Frequency:              100,
		SkipSteps:              1,
		NumDrones:              1,
		Mocaps:                 1,
		Pendulum:               true,
		Controlled:             false,
		RandomStartPos:         true,
		RandomParams:           true,
		Reference:              []float64{0, 0, 15, 0},
		StartPos:               []float64{0, 0, 15, 0},
		MaxDistance:            4,
		MaxSteps:               512,
		RegenSteps:             0,
		StateDifficulty:        0.4,
		ParamDifficulty:        0.1,
		MaxRandomOffset:        2,
		RPVariance:             []float64{0.8, 0.8},
		VelVariance:            []float64{1, 1, 1},
		AngVelVariance:         []float64{1, 1, 1},
		PendulumRPVariance:     []float64{0.5, 0.5},
		PendulumAngVelVariance: []float64{0.5, 0.5},
		MassInterval:           Interval{Center: 1, HalfWidth: 0.1},
		ArmLenInterval:         Interval{Center: 0.17, HalfWidth: 0.02},
		MotorForceInterval:     Interval{Center: 7, HalfWidth: 1},
		MotorTauInterval:       Interval{Center: 0.01, HalfWidth: 0.0025},
		PendulumLenInterval:    Interval{Center: 1.2, HalfWidth: 0.2},
		WeightMassInterval:     Interval{Center: 0.3, HalfWidth: 0.05},
		RewardName:             DistanceEnergyReward,
		TerminationName:        DistanceTermination,
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
// Unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loadConfig: %v", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("loadConfig: could not parse %v: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loadConfig: %v", err)
	}
	return cfg, nil
}

// Validate checks the configuration once, before the environment is
// constructed
func (c *Config) Validate() error {
	if c.NumDrones < 1 {
		return fmt.Errorf("validate: num_drones must be at least 1, got %v",
			c.NumDrones)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("validate: frequency must be positive, got %v",
			c.Frequency)
	}
	if c.SkipSteps < 1 {
		return fmt.Errorf("validate: skip_steps must be at least 1, got %v",
			c.SkipSteps)
	}
	if c.Mocaps < 1 {
		return fmt.Errorf("validate: mocaps must be at least 1 to hold the "+
			"reference marker, got %v", c.Mocaps)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("validate: max_steps must be at least 1, got %v",
			c.MaxSteps)
	}
	if c.RegenSteps < 0 {
		return fmt.Errorf("validate: regen_env_at_steps cannot be negative, "+
			"got %v", c.RegenSteps)
	}
	if len(c.Reference) != 4 {
		return fmt.Errorf("validate: reference must be (x, y, z, yaw), got "+
			"%v values", len(c.Reference))
	}
	if len(c.StartPos) != 4 {
		return fmt.Errorf("validate: start_pos must be (x, y, z, yaw), got "+
			"%v values", len(c.StartPos))
	}
	if c.StateDifficulty < 0 || c.ParamDifficulty < 0 {
		return fmt.Errorf("validate: difficulty scalars cannot be negative")
	}
	if c.MaxRandomOffset < 0 {
		return fmt.Errorf("validate: max_random_offset cannot be negative, "+
			"got %v", c.MaxRandomOffset)
	}

	variances := []struct {
		name   string
		values []float64
		length int
	}{
		{"rp_variance", c.RPVariance, 2},
		{"vel_variance", c.VelVariance, 3},
		{"ang_vel_variance", c.AngVelVariance, 3},
		{"pendulum_rp_variance", c.PendulumRPVariance, 2},
		{"pendulum_ang_vel_variance", c.PendulumAngVelVariance, 2},
	}
	for _, v := range variances {
		if len(v.values) != v.length {
			return fmt.Errorf("validate: %v must have %v values, got %v",
				v.name, v.length, len(v.values))
		}
		for _, value := range v.values {
			if value < 0 {
				return fmt.Errorf("validate: %v cannot contain negative "+
					"values", v.name)
			}
		}
	}

	intervals := []struct {
		name     string
		interval Interval
	}{
		{"mass_interval", c.MassInterval},
		{"arm_len_interval", c.ArmLenInterval},
		{"motor_force_interval", c.MotorForceInterval},
		{"motor_tau_interval", c.MotorTauInterval},
		{"pendulum_length_interval", c.PendulumLenInterval},
		{"weight_mass_interval", c.WeightMassInterval},
	}
	for _, iv := range intervals {
		if iv.interval.HalfWidth < 0 {
			return fmt.Errorf("validate: %v half_width cannot be negative, "+
				"got %v", iv.name, iv.interval.HalfWidth)
		}
	}

	if c.Reward == nil {
		reward, err := RewardByName(c.RewardName)
		if err != nil {
			return fmt.Errorf("validate: %v", err)
		}
		c.Reward = reward
	}
	if c.Terminated == nil {
		terminated, err := TerminationByName(c.TerminationName)
		if err != nil {
			return fmt.Errorf("validate: %v", err)
		}
		c.Terminated = terminated
	}

	return nil
}
