package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/skyrl/godrone/agent"
	"github.com/skyrl/godrone/environment/drone"
	"github.com/skyrl/godrone/environment/drone/mujocosim"
	"github.com/skyrl/godrone/environment/drone/sim"
	"github.com/skyrl/godrone/experiment"
	"github.com/skyrl/godrone/experiment/trackers"
)

type options struct {
	configPath string
	modelPath  string
	dataPath   string
	plotPath   string
	policy     string
	steps      int
	throttle   float64
}

func main() {
	root := &cobra.Command{
		Use:           "godrone",
		Short:         "Rollout collection on the vectorized drone environment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	train := &cobra.Command{
		Use:   "train",
		Short: "Collect training rollouts with the configured environment",
	}
	opts := addFlags(train, "configs/train.yaml", "random")
	train.RunE = func(cmd *cobra.Command, args []string) error {
		return runRollouts(opts)
	}

	eval := &cobra.Command{
		Use:   "eval",
		Short: "Run evaluation episodes with a fixed rollout policy",
	}
	evalOpts := addFlags(eval, "configs/eval.yaml", "hover")
	eval.RunE = func(cmd *cobra.Command, args []string) error {
		return runRollouts(evalOpts)
	}

	root.AddCommand(train, eval)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addFlags(cmd *cobra.Command, defaultConfig, defaultPolicy string) *options {
	opts := &options{}
	cmd.Flags().StringVar(&opts.configPath, "config", defaultConfig,
		"environment configuration file")
	cmd.Flags().StringVar(&opts.modelPath, "model", "assets/drones.xml",
		"model description produced by the asset generator")
	cmd.Flags().StringVar(&opts.dataPath, "data", "returns.bin",
		"file to save episodic returns to")
	cmd.Flags().StringVar(&opts.plotPath, "plot", "",
		"optional file to save a return curve figure to")
	cmd.Flags().StringVar(&opts.policy, "policy", defaultPolicy,
		"rollout policy: random or hover")
	cmd.Flags().IntVar(&opts.steps, "steps", 10_000,
		"number of batched environment steps to run")
	cmd.Flags().Float64Var(&opts.throttle, "throttle", 0.5,
		"motor throttle fraction of the hover policy")
	return opts
}

func runRollouts(opts *options) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := drone.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if _, err := trackers.LoadReturns(opts.dataPath); err != nil {
		logger.Info("no previous run data found, starting fresh",
			zap.String("path", opts.dataPath))
	}

	// The parameter-dependent model description is written by the
	// external asset generator; this reads its latest output.
	builder := mujocosim.NewBuilder(
		func(params []sim.Params, frequency, mocaps int) ([]byte, error) {
			return os.ReadFile(opts.modelPath)
		})

	env, err := drone.New(cfg, builder, nil, logger)
	if err != nil {
		return err
	}
	defer env.Close()

	var policy agent.VectorPolicy
	switch opts.policy {
	case "random":
		policy = agent.NewUniformRandom(4, cfg.Seed)
	case "hover":
		policy = agent.NewConstantThrottle(4, opts.throttle)
	default:
		return fmt.Errorf("no such policy %q", opts.policy)
	}

	returns := trackers.NewReturn(opts.dataPath, env.NumAgents())
	exp := experiment.NewVectorOnline(env, policy, opts.steps, logger, returns)

	if err := exp.Run(); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}

	if opts.plotPath != "" {
		if err := trackers.SaveReturnPlot(returns.Returns(),
			opts.plotPath); err != nil {
			return err
		}
		logger.Info("saved return curve", zap.String("path", opts.plotPath))
	}
	return nil
}
