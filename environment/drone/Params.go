package drone

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/skyrl/godrone/environment/drone/sim"
)

// generateParams samples one sim.Params per drone from the configured
// (center, half-width) intervals. When random parameters are enabled,
// each quantity is drawn as center + U(-halfWidth, halfWidth) scaled
// by the parameter difficulty; otherwise every drone receives exactly
// the center value.
//
// Draws are quantity-major and drone-index-ascending within each
// quantity so that the random stream is stable across runs for a
// fixed seed.
//
// Pendulum quantities are zeroed rather than omitted when the
// pendulum is disabled, which keeps the parameter vector length fixed
// regardless of the pendulum toggle.
func generateParams(cfg *Config, src rand.Source) []sim.Params {
	sample := func(iv Interval) []float64 {
		values := make([]float64, cfg.NumDrones)
		if cfg.RandomParams {
			u := distuv.Uniform{
				Min: -iv.HalfWidth,
				Max: iv.HalfWidth,
				Src: src,
			}
			for i := range values {
				values[i] = iv.Center + u.Rand()*cfg.ParamDifficulty
			}
		} else {
			for i := range values {
				values[i] = iv.Center
			}
		}
		return values
	}

	masses := sample(cfg.MassInterval)
	armLens := sample(cfg.ArmLenInterval)
	motorForces := sample(cfg.MotorForceInterval)
	motorTaus := sample(cfg.MotorTauInterval)
	pendulumLens := sample(cfg.PendulumLenInterval)
	weightMasses := sample(cfg.WeightMassInterval)

	pendulum := 0.0
	if cfg.Pendulum {
		pendulum = 1.0
	}

	params := make([]sim.Params, cfg.NumDrones)
	for i := range params {
		params[i] = sim.Params{
			Mass:        masses[i],
			ArmLen:      armLens[i],
			MotorForce:  motorForces[i],
			MotorTau:    motorTaus[i],
			PendulumLen: pendulum * pendulumLens[i],
			WeightMass:  pendulum * weightMasses[i],
		}
	}
	return params
}
