package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"quadsim/internal/telemetry"
)

type collectWriter struct {
	mu         sync.Mutex
	rows       []telemetry.TelemetryRow
	detections []telemetry.DetectionRow
}

func (c *collectWriter) Write(r telemetry.TelemetryRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, r)
	return nil
}

func (c *collectWriter) WriteDetection(d telemetry.DetectionRow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detections = append(c.detections, d)
	return nil
}

func (c *collectWriter) snapshot() []telemetry.TelemetryRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]telemetry.TelemetryRow(nil), c.rows...)
}

func TestReplayLog(t *testing.T) {
	rows := []telemetry.TelemetryRow{
		{FlightID: "f1", Tick: 1, Mode: "search", Timestamp: time.Unix(0, 0)},
		{FlightID: "f1", Tick: 2, Mode: "align", Timestamp: time.Unix(1, 0)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	cw := &collectWriter{}
	n, err := ReplayLog(context.Background(), &buf, cw, 0)
	if err != nil {
		t.Fatalf("ReplayLog: %v", err)
	}
	if n != len(rows) || len(cw.rows) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(cw.rows))
	}
	for i, r := range rows {
		if cw.rows[i].Tick != r.Tick || cw.rows[i].Mode != r.Mode {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, cw.rows[i], r)
		}
	}
}

func TestReplayLogStopsOnCancel(t *testing.T) {
	data := `{"tick":1,"ts":"2024-01-01T00:00:00Z"}
{"tick":2,"ts":"2024-01-01T01:00:00Z"}
`
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cw := &collectWriter{}
	n, err := ReplayLog(ctx, strings.NewReader(data), cw, 1)
	if err == nil {
		t.Fatal("expected context error")
	}
	if n != 1 {
		t.Fatalf("expected one row before the gap, got %d", n)
	}
}

func TestReplayLogBadLine(t *testing.T) {
	cw := &collectWriter{}
	_, err := ReplayLog(context.Background(), strings.NewReader("{\"tick\":1}\nnot json\n"), cw, 0)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if len(cw.rows) != 1 {
		t.Fatalf("expected first row written, got %d", len(cw.rows))
	}
}
