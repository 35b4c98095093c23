package sim

import "quadsim/internal/telemetry"

// DetectionWriter handles marker detection rows.
type DetectionWriter interface {
	WriteDetection(telemetry.DetectionRow) error
}

// Optional: Detection writers may support batch mode.
type batchDetectionWriter interface {
	WriteDetections([]telemetry.DetectionRow) error
}
