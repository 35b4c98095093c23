package sim

import (
	"errors"

	"quadsim/internal/telemetry"
)

// MultiWriter fans telemetry and detection rows out to multiple writers. Every
// writer is attempted; errors are joined.
type MultiWriter struct {
	telewriters []TelemetryWriter
	detwriters  []DetectionWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(tws []TelemetryWriter, dws []DetectionWriter) *MultiWriter {
	return &MultiWriter{telewriters: tws, detwriters: dws}
}

// Write sends a telemetry row to all writers.
func (mw *MultiWriter) Write(row telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if err := w.Write(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteBatch sends multiple telemetry rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	var errs []error
	for _, w := range mw.telewriters {
		if bw, ok := w.(batchWriter); ok {
			if err := bw.WriteBatch(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WriteDetection sends a detection row to all detection writers.
func (mw *MultiWriter) WriteDetection(row telemetry.DetectionRow) error {
	var errs []error
	for _, w := range mw.detwriters {
		if err := w.WriteDetection(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteDetections sends multiple detections to all detection writers, using batch if supported.
func (mw *MultiWriter) WriteDetections(rows []telemetry.DetectionRow) error {
	var errs []error
	for _, w := range mw.detwriters {
		if bw, ok := w.(batchDetectionWriter); ok {
			if err := bw.WriteDetections(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteDetection(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
