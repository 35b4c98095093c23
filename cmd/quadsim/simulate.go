package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"quadsim/internal/admin"
	"quadsim/internal/config"
	"quadsim/internal/logging"
	"quadsim/internal/scenario"
	"quadsim/internal/sim"
	"quadsim/internal/vision"
)

// runOptions are the flags shared by simulate and script.
type runOptions struct {
	Output        string
	LogFile       string
	Tick          time.Duration
	Steps         int
	StopOnLand    bool
	NoAdmin       bool
	AdminAddr     string
	SnapshotDir   string
	SnapshotEvery int
	RedisTTL      time.Duration
}

var simOpts runOptions

func addRunFlags(cmd *cobra.Command, o *runOptions) {
	f := cmd.Flags()
	f.StringVar(&o.Output, "output", outputAuto, "Console output: auto, json, color, tui or none")
	f.StringVar(&o.LogFile, "log-file", "", "Path to export telemetry/detection logs (JSONL)")
	f.DurationVar(&o.Tick, "tick", 0, "Tick interval override (default from rate_hz or TICK_INTERVAL)")
	f.IntVar(&o.Steps, "steps", 0, "Run this many ticks headless on a simulated clock, then exit (0 runs in real time)")
	f.BoolVar(&o.NoAdmin, "no-admin", false, "Disable the admin HTTP server")
	f.StringVar(&o.AdminAddr, "admin-addr", "", "Admin server address (default ADMIN_ADDR or :8080)")
	f.DurationVar(&o.RedisTTL, "redis-ttl", time.Minute, "Expiry of the cached latest rows in Redis")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Fly the closed visual landing loop",
	Long:  "simulate renders the bottom camera every tick, detects the marker and steers the vehicle through search, alignment and descent.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFlight(cmd.Context(), simOpts, nil)
	},
}

func init() {
	addRunFlags(simulateCmd, &simOpts)
	f := simulateCmd.Flags()
	f.BoolVar(&simOpts.StopOnLand, "stop-on-land", false, "Exit once the vehicle has landed")
	f.StringVar(&simOpts.SnapshotDir, "snapshot-dir", "", "Directory for annotated camera frames (PNG)")
	f.IntVar(&simOpts.SnapshotEvery, "snapshot-every", 30, "Save every Nth frame when --snapshot-dir is set")
}

// runFlight drives one simulator until it lands, runs out of steps or is
// interrupted. A non-nil scenario selects script mode.
func runFlight(ctx context.Context, o runOptions, sc *scenario.Scenario) error {
	log := logging.FromContext(ctx)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	tick := o.Tick
	if tick <= 0 {
		tick = env.TickInterval
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	writers, err := newWriters(ctx, cfg, writerOptions{
		Output:   o.Output,
		LogFile:  o.LogFile,
		Env:      env,
		Sinks:    true,
		RedisTTL: o.RedisTTL,
	})
	if err != nil {
		return err
	}
	defer writers.Close()

	var clock *sim.ManualClock
	var now func() time.Time
	if o.Steps > 0 {
		clock = sim.NewManualClock(time.Now())
		now = clock.Now
	}
	simulator, err := sim.NewSimulator(env.FlightID, cfg, nil, writers.Telemetry, writers.Detection, tick, now)
	if err != nil {
		return err
	}
	simulator.SetStopOnLand(o.StopOnLand)
	if sc != nil {
		simulator.UseScript(sc)
	}
	if o.SnapshotDir != "" {
		hook, err := snapshotHook(ctx, o.SnapshotDir, o.SnapshotEvery, cfg.Camera.Order)
		if err != nil {
			return err
		}
		simulator.SetFrameHook(hook)
	}

	if o.Steps > 0 {
		n := simulator.RunSteps(ctx, o.Steps, clock)
		st := simulator.Status()
		log.Info("headless run finished", "flight_id", st.FlightID, "ticks", n, "landed", st.Landed,
			"x", st.Pose.Position.X, "y", st.Pose.Position.Y, "z", st.Pose.Position.Z)
		return nil
	}

	if !o.NoAdmin {
		addr := o.AdminAddr
		if addr == "" {
			addr = env.AdminAddr
		}
		startAdmin(ctx, simulator, addr, writers.Admin)
	}

	simulator.Run(ctx)
	log.Info("flight stopped", "flight_id", simulator.FlightID(), "landed", simulator.Landed())
	return nil
}

func startAdmin(ctx context.Context, f admin.Flight, addr string, status sim.AdminStatusWriter) {
	log := logging.FromContext(ctx)
	srv := admin.NewServer(f)
	go func() {
		log.Info("admin server listening", "addr", addr)
		if status != nil {
			status.SetAdminStatus(true)
		}
		err := srv.Start(ctx, addr)
		if status != nil {
			status.SetAdminStatus(false)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin server failed", "addr", addr, "err", err)
		}
	}()
}

// snapshotHook saves every Nth annotated frame as frame_<tick>.png in dir.
func snapshotHook(ctx context.Context, dir string, every int, order vision.ChannelOrder) (sim.FrameHook, error) {
	if every <= 0 {
		return nil, fmt.Errorf("snapshot-every must be positive, got %d", every)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx)
	return func(tick int64, frame gocv.Mat) {
		if tick%int64(every) != 0 {
			return
		}
		bgr, err := vision.ToBGR(frame, order)
		if err != nil {
			log.Warn("snapshot conversion failed", "tick", tick, "err", err)
			return
		}
		defer bgr.Close()
		path := filepath.Join(dir, fmt.Sprintf("frame_%06d.png", tick))
		if !gocv.IMWrite(path, bgr) {
			log.Warn("snapshot write failed", "path", path)
		}
	}, nil
}
