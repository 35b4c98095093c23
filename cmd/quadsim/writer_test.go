package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"quadsim/internal/config"
	"quadsim/internal/sim"
	"quadsim/internal/telemetry"
	"quadsim/internal/vision"
)

func TestResolveOutput(t *testing.T) {
	cases := []struct {
		in   string
		tty  bool
		want string
	}{
		{"auto", true, outputColor},
		{"auto", false, outputJSON},
		{"", false, outputJSON},
		{"tui", false, outputTUI},
		{"none", true, outputNone},
	}
	for _, c := range cases {
		got, err := resolveOutput(c.in, c.tty)
		if err != nil || got != c.want {
			t.Errorf("resolveOutput(%q, %v) = %q, %v; want %q", c.in, c.tty, got, err, c.want)
		}
	}
	if _, err := resolveOutput("xml", false); err == nil {
		t.Error("expected error for unknown output")
	}
}

func TestNewWritersJSON(t *testing.T) {
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{Output: outputJSON})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.Close()
	if _, ok := ws.Telemetry.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", ws.Telemetry)
	}
	if _, ok := ws.Detection.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", ws.Detection)
	}
	if ws.Admin != nil {
		t.Fatalf("expected no admin status writer, got %T", ws.Admin)
	}
}

func TestNewWritersNone(t *testing.T) {
	ws, err := newWriters(context.Background(), nil, writerOptions{Output: outputNone})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if ws.Telemetry != nil || ws.Detection != nil {
		t.Fatalf("expected no writers, got %T %T", ws.Telemetry, ws.Detection)
	}
}

func TestNewWritersSinksSkippedWhenUnset(t *testing.T) {
	ws, err := newWriters(context.Background(), nil, writerOptions{Output: outputNone, Sinks: true})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if ws.Telemetry != nil {
		t.Fatalf("expected no sinks without endpoints, got %T", ws.Telemetry)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telemetry.log")
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{Output: outputNone, LogFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := ws.Telemetry.(*sim.FileWriter); !ok {
		t.Fatalf("expected *sim.FileWriter, got %T", ws.Telemetry)
	}
	row := telemetry.TelemetryRow{FlightID: "f", Timestamp: time.Unix(0, 0).UTC()}
	if err := ws.Telemetry.Write(row); err != nil {
		t.Fatalf("write telemetry: %v", err)
	}
	if err := ws.Detection.WriteDetection(telemetry.DetectionRow{FlightID: "f"}); err != nil {
		t.Fatalf("write detection: %v", err)
	}
	ws.Close()
	for _, p := range []string{path, path + ".detections"} {
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			t.Fatalf("expected data in %s: %v", p, err)
		}
	}
}

func TestNewWritersLogFileWithConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.log")
	ws, err := newWriters(context.Background(), config.Default(), writerOptions{Output: outputJSON, LogFile: path})
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer ws.Close()
	if _, ok := ws.Telemetry.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", ws.Telemetry)
	}
}

func TestResolveScenario(t *testing.T) {
	sc, err := resolveScenario("hop", 0)
	if err != nil || sc.Name != "hop" {
		t.Fatalf("expected hop scenario, got %+v %v", sc, err)
	}
	if sc, err := resolveScenario("random", 7); err != nil || len(sc.Steps) == 0 {
		t.Fatalf("expected random scenario, got %v", err)
	}
	if sc, err := resolveScenario("../../internal/scenario/testdata/box.yaml", 0); err != nil || len(sc.Steps) != 3 {
		t.Fatalf("expected scenario file, got %v", err)
	}
	_, err = resolveScenario("nope", 0)
	if err == nil || !strings.Contains(err.Error(), "square") {
		t.Fatalf("expected unknown scenario error listing built-ins, got %v", err)
	}
}

func TestScalarFlag(t *testing.T) {
	s, err := scalarFlag("lower", []float64{170, 100, 100})
	if err != nil || s != [4]float64{170, 100, 100, 255} {
		t.Fatalf("unexpected scalar %v %v", s, err)
	}
	if _, err := scalarFlag("lower", []float64{1}); err == nil {
		t.Fatal("expected error for short scalar")
	}
}

func TestSnapshotHook(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "frames")
	hook, err := snapshotHook(context.Background(), dir, 2, vision.OrderRGBA)
	if err != nil {
		t.Fatalf("snapshotHook: %v", err)
	}
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 255), 32, 32, gocv.MatTypeCV8UC4)
	defer frame.Close()
	hook(1, frame)
	hook(2, frame)
	files, _ := filepath.Glob(filepath.Join(dir, "*.png"))
	if len(files) != 1 || filepath.Base(files[0]) != "frame_000002.png" {
		t.Fatalf("unexpected snapshots %v", files)
	}
	if _, err := snapshotHook(context.Background(), dir, 0, vision.OrderRGBA); err == nil {
		t.Fatal("expected error for non-positive interval")
	}
}

func TestProfilesCommand(t *testing.T) {
	var buf bytes.Buffer
	profilesCmd.SetOut(&buf)
	if err := profilesCmd.RunE(profilesCmd, nil); err != nil {
		t.Fatalf("profiles: %v", err)
	}
	if got := strings.Fields(buf.String()); strings.Join(got, ",") != "legacy,square,tuned" {
		t.Fatalf("unexpected profiles %q", buf.String())
	}
}
