// Telemetry rows with greptime tags
package telemetry

import "time"

// TelemetryRow is one flight loop tick.
type TelemetryRow struct {
	FlightID    string    `json:"flight_id"`        // TAG
	Mode        string    `json:"mode"`             // TAG
	Tick        int64     `json:"tick"`             // FIELD
	X           float64   `json:"x"`                // FIELD
	Y           float64   `json:"y"`                // FIELD
	Z           float64   `json:"z"`                // FIELD
	Heading     float64   `json:"heading"`          // FIELD
	Hover       bool      `json:"hover"`            // FIELD
	CmdAngle    float64   `json:"cmd_angle"`        // FIELD
	CmdSpeed    float64   `json:"cmd_speed"`        // FIELD
	CmdAltitude float64   `json:"cmd_altitude"`     // FIELD
	XOffset     float64   `json:"x_offset"`         // FIELD
	YOffset     float64   `json:"y_offset"`         // FIELD
	Aligned     bool      `json:"aligned"`          // FIELD
	SearchStep  int       `json:"search_step"`      // FIELD
	Action      string    `json:"action,omitempty"` // FIELD
	Error       string    `json:"error,omitempty"`  // FIELD
	Timestamp   time.Time `json:"ts"`               // TIME INDEX
}

// DetectionRow is emitted for every frame with a visible marker.
type DetectionRow struct {
	FlightID  string    `json:"flight_id"` // TAG
	Tick      int64     `json:"tick"`      // FIELD
	CenterX   float64   `json:"center_x"`  // FIELD
	CenterY   float64   `json:"center_y"`  // FIELD
	Radius    float64   `json:"radius"`    // FIELD
	Area      float64   `json:"area"`      // FIELD
	Timestamp time.Time `json:"ts"`        // TIME INDEX
}

// Default GreptimeDB table names.
const (
	TelemetryTableName = "flight_telemetry"
	DetectionTableName = "flight_detections"
)

// Flight modes written to TelemetryRow.Mode in script mode.
const (
	ModeScript = "script"
	ModeIdle   = "idle"
)
