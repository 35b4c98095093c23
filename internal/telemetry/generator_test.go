package telemetry

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"

	"quadsim/internal/flight"
	"quadsim/internal/vision"
)

func TestGenerateTelemetry(t *testing.T) {
	gen := NewGenerator("flight-1")
	at := time.Date(2024, 5, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	row := gen.GenerateTelemetry(Sample{
		Tick:    7,
		Pose:    flight.Pose{Position: r3.Vector{X: 1, Y: 0.5, Z: -2}, Heading: 3 * math.Pi / 2},
		Command: flight.Command{Angle: math.Pi, Speed: 0.2, Altitude: 1},
		Mode:    "align",
		XOffset: -12,
		Err:     errors.New("frame lost"),
		Time:    at,
	})

	if row.FlightID != "flight-1" || row.Tick != 7 || row.Mode != "align" {
		t.Errorf("unexpected identity fields: %+v", row)
	}
	if row.X != 1 || row.Y != 0.5 || row.Z != -2 {
		t.Errorf("unexpected position: %+v", row)
	}
	if math.Abs(row.Heading+math.Pi/2) > 1e-9 {
		t.Errorf("expected normalized heading -π/2, got %f", row.Heading)
	}
	if row.CmdAngle != math.Pi || row.CmdSpeed != 0.2 || row.CmdAltitude != 1 || row.Hover {
		t.Errorf("unexpected command fields: %+v", row)
	}
	if row.Error != "frame lost" {
		t.Errorf("expected error text, got %q", row.Error)
	}
	if row.Timestamp.Location() != time.UTC || !row.Timestamp.Equal(at) {
		t.Errorf("expected UTC timestamp, got %v", row.Timestamp)
	}
}

func TestGenerateDetection(t *testing.T) {
	gen := NewGenerator("flight-1")
	now := time.Now()

	if _, ok := gen.GenerateDetection(1, vision.DetectionResult{}, now); ok {
		t.Fatalf("expected no row without a detection")
	}

	det := vision.DetectionResult{Found: true, Center: vision.Point{X: 100, Y: 110}, Radius: 9, Area: 250}
	row, ok := gen.GenerateDetection(3, det, now)
	if !ok {
		t.Fatalf("expected detection row")
	}
	if row.CenterX != 100 || row.CenterY != 110 || row.Radius != 9 || row.Area != 250 || row.Tick != 3 {
		t.Errorf("unexpected row: %+v", row)
	}
}
