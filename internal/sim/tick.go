package sim

import (
	"context"
	"time"

	"quadsim/internal/control"
	"quadsim/internal/flight"
	"quadsim/internal/logging"
	"quadsim/internal/telemetry"
	"quadsim/internal/vision"
)

// Run starts the simulation loop and stops when the context is done or,
// with stop-on-land set, once the vehicle has landed.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "flight_id", s.flightID, "run_mode", s.Mode(), "tick_interval", s.tickInterval)
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.tick(ctx) {
				log.Info("landed, stopping simulator", "flight_id", s.flightID)
				return
			}
		case <-ctx.Done():
			log.Info("stopping simulator", "flight_id", s.flightID)
			return
		}
	}
}

// RunSteps runs up to n ticks back to back, advancing clock by the tick
// interval after each one. It returns the number of ticks executed.
func (s *Simulator) RunSteps(ctx context.Context, n int, clock *ManualClock) int {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return i
		}
		done := s.tick(ctx)
		if clock != nil {
			clock.Advance(s.tickInterval)
		}
		if done {
			return i + 1
		}
	}
	return n
}

// tick advances the flight by one step and writes its telemetry. It reports
// whether the loop should end.
func (s *Simulator) tick(ctx context.Context) bool {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.ticks++

	var sample telemetry.Sample
	var detection *telemetry.DetectionRow
	if s.mode == ModeScript {
		sample = s.stepScript(ctx, now)
	} else {
		sample, detection = s.stepVisual(ctx, now)
	}
	sample.Tick = s.ticks
	sample.Time = now
	sample.Pose = s.integrator.Pose()

	row := s.teleGen.GenerateTelemetry(sample)
	s.record(row)

	log.Debug("tick", "flight_id", s.flightID, "tick", row.Tick, "mode", row.Mode, "x", row.X, "y", row.Y, "z", row.Z)

	if s.writer != nil {
		if err := s.writer.Write(row); err != nil {
			log.Error("write failed", "flight_id", s.flightID, "err", err)
		}
	}
	if detection != nil && s.detectionWriter != nil {
		if err := s.detectionWriter.WriteDetection(*detection); err != nil {
			log.Error("detection write failed", "flight_id", s.flightID, "err", err)
		}
	}
	return s.stopOnLand && s.landed
}

func (s *Simulator) stepVisual(ctx context.Context, now time.Time) (telemetry.Sample, *telemetry.DetectionRow) {
	log := logging.FromContext(ctx)
	pose := s.integrator.Pose()

	frame, err := s.camera.Capture(pose)
	defer frame.Close()

	var det vision.DetectionResult
	if err == nil {
		det, err = s.detector.Detect(frame)
	}
	if err != nil {
		log.Error("frame processing failed", "flight_id", s.flightID, "tick", s.ticks, "err", err)
		cmd := s.fallbackCommand(now)
		s.integrator.SetTarget(cmd)
		s.integrator.Tick(s.dt)
		mode := s.lastMode
		if mode == "" {
			mode = control.ModeSearch.String()
		}
		return telemetry.Sample{Command: cmd, Mode: mode, Err: err}, nil
	}

	dec := s.controller.Step(det, frame.Cols(), frame.Rows(), pose.Altitude(), now)
	s.setMode(ctx, dec.Mode.String())
	s.landed = dec.Mode == control.ModeLanded
	s.integrator.SetTarget(dec.Command)
	s.integrator.Tick(s.dt)
	cmd := dec.Command
	s.lastCmd = &cmd

	if s.frameHook != nil {
		vision.Annotate(&frame, det, dec.OverlayLines())
		s.frameHook(s.ticks, frame)
	}

	sample := telemetry.Sample{
		Command:    dec.Command,
		Mode:       dec.Mode.String(),
		XOffset:    dec.Alignment.XOffset,
		YOffset:    dec.Alignment.YOffset,
		Aligned:    dec.Alignment.Aligned,
		SearchStep: dec.Search.StepIndex,
		Action:     dec.Label,
	}
	if row, ok := s.teleGen.GenerateDetection(s.ticks, det, now); ok {
		return sample, &row
	}
	return sample, nil
}

// fallbackCommand keeps the vehicle doing what it did last, or searching when
// no command was ever issued.
func (s *Simulator) fallbackCommand(now time.Time) flight.Command {
	if s.lastCmd != nil {
		return *s.lastCmd
	}
	cmd := s.controller.SearchCommand(now)
	s.lastCmd = &cmd
	return cmd
}

func (s *Simulator) stepScript(ctx context.Context, now time.Time) telemetry.Sample {
	s.scheduler.Tick(now)
	if s.runner != nil {
		if st, ok := s.runner.Tick(now, s.scheduler); ok {
			s.scheduler.Tick(now)
			s.logEvent("action", st.Action)
		}
	}
	s.scheduler.Advance(s.dt, s.integrator)

	sample := telemetry.Sample{Mode: telemetry.ModeIdle, Command: s.integrator.Target()}
	if a, ok := s.scheduler.Active(); ok {
		sample.Mode = telemetry.ModeScript
		sample.Action = string(a.Kind)
	}
	s.setMode(ctx, sample.Mode)
	return sample
}

func (s *Simulator) setMode(ctx context.Context, mode string) {
	if mode == s.lastMode {
		return
	}
	logging.FromContext(ctx).Info("mode change", "flight_id", s.flightID, "from", s.lastMode, "to", mode, "tick", s.ticks)
	s.logEvent("mode", mode)
	s.lastMode = mode
}

// record keeps the row for snapshots and hands it to subscribers without blocking.
func (s *Simulator) record(row telemetry.TelemetryRow) {
	s.lastRow = row
	s.recent = append(s.recent, row)
	if len(s.recent) > recentCapacity {
		s.recent = s.recent[len(s.recent)-recentCapacity:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- row:
		default:
		}
	}
}
