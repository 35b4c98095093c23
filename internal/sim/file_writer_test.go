package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quadsim/internal/telemetry"
)

func readLines(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var lines [][]byte
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, append([]byte(nil), sc.Bytes()...))
	}
	return lines
}

func TestFileWriter(t *testing.T) {
	dir := t.TempDir()
	ts := time.Unix(0, 0).UTC()
	telePath := filepath.Join(dir, "telemetry.jsonl")
	detPath := filepath.Join(dir, "detections.jsonl")

	fw, err := NewFileWriter(telePath, detPath)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	rows := []telemetry.TelemetryRow{
		{FlightID: "f1", Tick: 1, Mode: "search", X: 0.5, Timestamp: ts},
		{FlightID: "f1", Tick: 2, Mode: "align", XOffset: 14, Timestamp: ts},
	}
	if err := fw.WriteBatch(rows); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	if err := fw.WriteDetection(telemetry.DetectionRow{FlightID: "f1", Tick: 2, CenterX: 134, Timestamp: ts}); err != nil {
		t.Fatalf("WriteDetection: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, telePath)
	if len(lines) != 2 {
		t.Fatalf("expected 2 telemetry lines, got %d", len(lines))
	}
	var got telemetry.TelemetryRow
	if err := json.Unmarshal(lines[1], &got); err != nil {
		t.Fatalf("decode telemetry: %v", err)
	}
	if got.Mode != "align" || got.XOffset != 14 {
		t.Fatalf("unexpected telemetry: %#v", got)
	}

	det := readLines(t, detPath)
	if len(det) != 1 {
		t.Fatalf("expected 1 detection line, got %d", len(det))
	}
	var d telemetry.DetectionRow
	if err := json.Unmarshal(det[0], &d); err != nil {
		t.Fatalf("decode detection: %v", err)
	}
	if d.CenterX != 134 {
		t.Fatalf("unexpected detection: %#v", d)
	}
}

func TestFileWriterWithoutDetections(t *testing.T) {
	dir := t.TempDir()
	fw, err := NewFileWriter(filepath.Join(dir, "t.jsonl"), "")
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer fw.Close()
	if err := fw.WriteDetection(telemetry.DetectionRow{}); err != nil {
		t.Fatalf("expected detection write to be a no-op, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "detections.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("unexpected detection file")
	}
}

func TestFileWriterBadPath(t *testing.T) {
	if _, err := NewFileWriter(filepath.Join(t.TempDir(), "missing", "t.jsonl"), ""); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
