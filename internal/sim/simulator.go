// Simulator running the flight loop and fanning telemetry out to writers
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"quadsim/internal/config"
	"quadsim/internal/control"
	"quadsim/internal/flight"
	"quadsim/internal/queue"
	"quadsim/internal/scenario"
	"quadsim/internal/scene"
	"quadsim/internal/telemetry"
	"quadsim/internal/vision"
)

// TelemetryWriter is an interface to support different output writers.
type TelemetryWriter interface {
	Write(telemetry.TelemetryRow) error
}

// Optional: Writers can also support batch mode
type batchWriter interface {
	WriteBatch([]telemetry.TelemetryRow) error
}

// FrameSource supplies the bottom camera frame for a pose. The caller owns
// and closes the returned Mat.
type FrameSource interface {
	Capture(pose flight.Pose) (gocv.Mat, error)
}

// FrameHook receives each annotated frame. It must not retain the Mat.
type FrameHook func(tick int64, frame gocv.Mat)

// RunMode selects what drives the vehicle.
type RunMode string

const (
	// ModeVisual closes the loop through the camera, detector and controller.
	ModeVisual RunMode = "visual"
	// ModeScript plays timed discrete actions through the action scheduler.
	ModeScript RunMode = "script"
)

// ErrNotScripted is returned by queue operations in visual mode.
var ErrNotScripted = errors.New("simulator is not in script mode")

const recentCapacity = 120

// Simulator owns one vehicle and advances it once per tick.
type Simulator struct {
	flightID        string
	cfg             *config.FlightConfig
	teleGen         *telemetry.Generator
	integrator      *flight.Integrator
	detector        *vision.Detector
	controller      *control.Controller
	camera          FrameSource
	scheduler       *queue.Scheduler
	runner          *scenario.Runner
	mode            RunMode
	writer          TelemetryWriter
	detectionWriter DetectionWriter
	frameHook       FrameHook
	tickInterval    time.Duration
	dt              float64
	now             func() time.Time

	ticks      int64
	lastCmd    *flight.Command
	lastMode   string
	landed     bool
	stopOnLand bool
	lastRow    telemetry.TelemetryRow
	recent     []telemetry.TelemetryRow
	events     []Event
	subs       map[int]chan telemetry.TelemetryRow
	nextSub    int

	mu sync.Mutex
}

// NewSimulator builds the flight loop in visual mode. A nil camera selects the
// synthetic scene camera, a zero tickInterval the configured rate and a nil
// now the wall clock. An empty flightID gets a random UUID.
func NewSimulator(flightID string, cfg *config.FlightConfig, camera FrameSource, writer TelemetryWriter, dWriter DetectionWriter, tickInterval time.Duration, now func() time.Time) (*Simulator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if flightID == "" {
		flightID = generateFlightID()
	}
	if tickInterval <= 0 {
		tickInterval = cfg.TickInterval()
	}
	if now == nil {
		now = time.Now
	}
	detector, err := vision.NewDetector(cfg.Detector)
	if err != nil {
		return nil, err
	}
	if camera == nil {
		cam, err := scene.NewCamera(cfg.Camera)
		if err != nil {
			return nil, err
		}
		camera = cam
	}
	return &Simulator{
		flightID:        flightID,
		cfg:             cfg,
		teleGen:         telemetry.NewGenerator(flightID),
		integrator:      flight.NewIntegrator(cfg.Start, cfg.Gains),
		detector:        detector,
		controller:      control.New(cfg.Controller),
		camera:          camera,
		scheduler:       queue.NewScheduler(cfg.Queue.MaxSpeed),
		mode:            ModeVisual,
		writer:          writer,
		detectionWriter: dWriter,
		tickInterval:    tickInterval,
		dt:              tickInterval.Seconds(),
		now:             now,
		subs:            make(map[int]chan telemetry.TelemetryRow),
	}, nil
}

// UseScript switches to script mode. A nil scenario leaves the queue to be
// filled through Enqueue.
func (s *Simulator) UseScript(sc *scenario.Scenario) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeScript
	s.runner = nil
	if sc != nil {
		s.runner = scenario.NewRunner(sc)
	}
}

// SetFrameHook installs a receiver for annotated frames.
func (s *Simulator) SetFrameHook(h FrameHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frameHook = h
}

// SetStopOnLand makes Run and RunSteps return once the vehicle has landed.
func (s *Simulator) SetStopOnLand(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopOnLand = v
}

func (s *Simulator) FlightID() string { return s.flightID }

// GetConfig returns the flight configuration.
func (s *Simulator) GetConfig() *config.FlightConfig { return s.cfg }

func (s *Simulator) Mode() RunMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Landed reports whether the last visual tick ended in the landed mode.
func (s *Simulator) Landed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.landed
}

// Status is a point-in-time view for the admin server.
type Status struct {
	FlightID string                 `json:"flight_id"`
	RunMode  RunMode                `json:"run_mode"`
	Tick     int64                  `json:"tick"`
	Landed   bool                   `json:"landed"`
	Pose     flight.Pose            `json:"pose"`
	Command  flight.Command         `json:"command"`
	Last     telemetry.TelemetryRow `json:"last"`
	Active   *queue.Action          `json:"active,omitempty"`
	Pending  int                    `json:"pending"`
}

// Status returns the current flight state.
func (s *Simulator) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		FlightID: s.flightID,
		RunMode:  s.mode,
		Tick:     s.ticks,
		Landed:   s.landed,
		Pose:     s.integrator.Pose(),
		Command:  s.integrator.Target(),
		Last:     s.lastRow,
		Pending:  len(s.scheduler.Pending()),
	}
	if a, ok := s.scheduler.Active(); ok {
		st.Active = &a
	}
	return st
}

// TelemetrySnapshot returns up to n of the most recent rows, oldest first.
// n <= 0 returns everything retained.
func (s *Simulator) TelemetrySnapshot(n int) []telemetry.TelemetryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.recent
	if n > 0 && n < len(rows) {
		rows = rows[len(rows)-n:]
	}
	return append([]telemetry.TelemetryRow(nil), rows...)
}

// Enqueue adds a discrete action in script mode.
func (s *Simulator) Enqueue(kind queue.Kind, speedFactor float64, d time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeScript {
		return false, ErrNotScripted
	}
	ok := s.scheduler.Enqueue(kind, speedFactor, d)
	if ok {
		s.logEvent("enqueue", fmt.Sprintf("%s speed=%.2f duration=%s", kind, speedFactor, d))
	}
	return ok, nil
}

// Stop halts the active action and drops pending ones in script mode.
func (s *Simulator) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeScript {
		return ErrNotScripted
	}
	s.scheduler.Clear()
	s.logEvent("stop", "queue cleared")
	return nil
}

// Subscribe streams every new telemetry row. Slow subscribers miss rows
// rather than stall the loop. Call cancel to release the channel.
func (s *Simulator) Subscribe() (<-chan telemetry.TelemetryRow, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan telemetry.TelemetryRow, 16)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func generateFlightID() string {
	return "flight-" + uuid.New().String()
}
