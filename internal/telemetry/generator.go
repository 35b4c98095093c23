package telemetry

import (
	"time"

	"quadsim/internal/flight"
	"quadsim/internal/vision"
)

// Sample is the state of one tick as seen by the flight loop.
type Sample struct {
	Tick       int64
	Pose       flight.Pose
	Command    flight.Command
	Mode       string
	XOffset    float64
	YOffset    float64
	Aligned    bool
	SearchStep int
	Action     string
	Err        error
	Time       time.Time
}

// Generator stamps samples of one flight into rows.
type Generator struct {
	FlightID string
}

// NewGenerator creates a row generator for a flight.
func NewGenerator(flightID string) *Generator {
	return &Generator{FlightID: flightID}
}

// GenerateTelemetry converts a sample into a row ready for the writers.
// Heading is normalized to (-π, π].
func (g *Generator) GenerateTelemetry(s Sample) TelemetryRow {
	row := TelemetryRow{
		FlightID:    g.FlightID,
		Mode:        s.Mode,
		Tick:        s.Tick,
		X:           s.Pose.Position.X,
		Y:           s.Pose.Position.Y,
		Z:           s.Pose.Position.Z,
		Heading:     flight.NormalizeAngle(s.Pose.Heading),
		Hover:       s.Command.Hover,
		CmdAngle:    s.Command.Angle,
		CmdSpeed:    s.Command.Speed,
		CmdAltitude: s.Command.Altitude,
		XOffset:     s.XOffset,
		YOffset:     s.YOffset,
		Aligned:     s.Aligned,
		SearchStep:  s.SearchStep,
		Action:      s.Action,
		Timestamp:   s.Time.UTC(),
	}
	if s.Err != nil {
		row.Error = s.Err.Error()
	}
	return row
}

// GenerateDetection converts a found detection into a row. ok is false when
// nothing was detected.
func (g *Generator) GenerateDetection(tick int64, det vision.DetectionResult, at time.Time) (DetectionRow, bool) {
	if !det.Found {
		return DetectionRow{}, false
	}
	return DetectionRow{
		FlightID:  g.FlightID,
		Tick:      tick,
		CenterX:   det.Center.X,
		CenterY:   det.Center.Y,
		Radius:    det.Radius,
		Area:      det.Area,
		Timestamp: at.UTC(),
	}, true
}
