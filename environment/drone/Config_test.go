package drone

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default configuration should validate: %v", err)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
num_drones: 16
pendulum: false
state_difficulty: 0.7
mass_interval:
  center: 1.5
  half_width: 0.2
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NumDrones != 16 {
		t.Errorf("num_drones = %v, want 16", cfg.NumDrones)
	}
	if cfg.Pendulum {
		t.Error("pendulum should be disabled")
	}
	if cfg.StateDifficulty != 0.7 {
		t.Errorf("state_difficulty = %v, want 0.7", cfg.StateDifficulty)
	}
	if cfg.MassInterval.Center != 1.5 || cfg.MassInterval.HalfWidth != 0.2 {
		t.Errorf("mass_interval = %+v", cfg.MassInterval)
	}

	// untouched options keep their defaults
	if cfg.MaxSteps != 512 {
		t.Errorf("max_steps = %v, want default 512", cfg.MaxSteps)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfigFile(t, "num_dornes: 16\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("misspelled key should be rejected")
	}
}

func TestValidateRejectsBadVarianceLength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VelVariance = []float64{1, 1}
	if err := cfg.Validate(); err == nil {
		t.Error("vel_variance with two values should be rejected")
	}
}

func TestValidateRejectsBadReference(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reference = []float64{0, 0, 15}
	if err := cfg.Validate(); err == nil {
		t.Error("three-component reference should be rejected")
	}
}

func TestValidateRejectsUnknownReward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RewardName = "nonexistent"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown reward name should be rejected")
	}
}

func TestValidateKeepsProgrammaticFunctions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RewardName = "nonexistent"
	cfg.Reward = Hover
	cfg.Terminated = TooLong
	if err := cfg.Validate(); err != nil {
		t.Errorf("programmatic reward should take precedence over the "+
			"name: %v", err)
	}
}
