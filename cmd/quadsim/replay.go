package main

import (
	"errors"

	"github.com/spf13/cobra"

	"quadsim/internal/config"
	"quadsim/internal/logging"
	"quadsim/internal/sim"
)

var (
	replayInput  string
	replaySpeed  float64
	replayOutput string
	replaySinks  bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a telemetry log file",
	Long:  "replay feeds telemetry rows from a JSONL log file back to the console or, with --sinks, to the sinks configured in the environment.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)
		opts := writerOptions{Output: replayOutput, Sinks: replaySinks}
		if replaySinks {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			opts.Env = env
		}
		// The config only feeds the console overview, so a missing one is fine.
		cfg, err := loadConfig()
		if err != nil {
			log.Debug("replay without flight config", "err", err)
			cfg = nil
		}
		writers, err := newWriters(ctx, cfg, opts)
		if err != nil {
			return err
		}
		defer writers.Close()
		if writers.Telemetry == nil {
			return errors.New("nothing to replay to: --output none without --sinks")
		}
		n, err := sim.ReplayLogFile(ctx, replayInput, writers.Telemetry, replaySpeed)
		log.Info("replay finished", "rows", n)
		return err
	},
}

func init() {
	f := replayCmd.Flags()
	f.StringVar(&replayInput, "input", "", "Path to telemetry log file")
	f.Float64Var(&replaySpeed, "speed", 1.0, "Playback speed multiplier (0 replays without delay)")
	f.StringVar(&replayOutput, "output", outputAuto, "Console output: auto, json, color, tui or none")
	f.BoolVar(&replaySinks, "sinks", false, "Also write to GreptimeDB, NATS and Redis when configured")
	replayCmd.MarkFlagRequired("input")
}
