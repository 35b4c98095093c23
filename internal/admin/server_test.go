package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quadsim/internal/sim"
	"quadsim/internal/telemetry"
)

func newTestSim(t *testing.T) (*sim.Simulator, *sim.ManualClock) {
	t.Helper()
	clock := sim.NewManualClock(time.Unix(1700000000, 0))
	s, err := sim.NewSimulator("flight-admin", nil, nil, nil, nil, 0, clock.Now)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s, clock
}

func TestHandleStatus(t *testing.T) {
	s, clock := newTestSim(t)
	s.RunSteps(context.Background(), 2, clock)
	server := NewServer(s)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	var st sim.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if st.FlightID != "flight-admin" || st.Tick != 2 || st.RunMode != sim.ModeVisual {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestHandleTelemetry(t *testing.T) {
	s, clock := newTestSim(t)
	s.RunSteps(context.Background(), 5, clock)
	server := NewServer(s)

	req := httptest.NewRequest(http.MethodGet, "/telemetry?n=2", nil)
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %v", w.Code)
	}
	var rows []telemetry.TelemetryRow
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 2 || rows[1].Tick != 5 {
		t.Errorf("unexpected rows: %+v", rows)
	}

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/telemetry?n=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected bad request for invalid n, got %v", w.Code)
	}
}

func TestHandleEnqueue(t *testing.T) {
	s, clock := newTestSim(t)
	server := NewServer(s)
	h := server.Handler()

	body := `{"kind":"right","speed":0.5,"duration":"1s"}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/enqueue", strings.NewReader(body)))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected conflict in visual mode, got %v", w.Code)
	}

	s.UseScript(nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/enqueue", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected OK, got %v: %s", w.Code, w.Body.String())
	}
	var resp map[string]bool
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || !resp["accepted"] {
		t.Fatalf("expected accepted, got %v %v", resp, err)
	}

	s.RunSteps(context.Background(), 1, clock)
	if st := s.Status(); st.Active == nil || st.Active.Kind != "right" {
		t.Fatalf("expected active right action, got %+v", st.Active)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/enqueue", strings.NewReader(`{"kind":"sideways","duration":"1s"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected bad request for unknown kind, got %v", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/enqueue", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected method not allowed, got %v", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stop", bytes.NewReader(nil)))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected no content from stop, got %v", w.Code)
	}
	if st := s.Status(); st.Active != nil {
		t.Fatalf("expected no active action after stop")
	}
}

func TestHandleEventsAndIndex(t *testing.T) {
	s, _ := newTestSim(t)
	s.UseScript(nil)
	s.Enqueue("up", 1, time.Second)
	server := NewServer(s)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	var events []sim.Event
	if err := json.NewDecoder(w.Body).Decode(&events); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(events) != 1 || events[0].Type != "enqueue" {
		t.Fatalf("unexpected events: %+v", events)
	}

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "flight-admin") {
		t.Fatalf("unexpected index response %v", w.Code)
	}

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", w.Code)
	}
}

func TestWebSocketStreamsTelemetry(t *testing.T) {
	s, clock := newTestSim(t)
	ts := httptest.NewServer(NewServer(s).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	s.RunSteps(context.Background(), 1, clock)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var row telemetry.TelemetryRow
	if err := conn.ReadJSON(&row); err != nil {
		t.Fatalf("read: %v", err)
	}
	if row.FlightID != "flight-admin" || row.Tick != 1 {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestStartShutsDownOnCancel(t *testing.T) {
	s, _ := newTestSim(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(s).Start(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != http.ErrServerClosed {
			t.Fatalf("expected ErrServerClosed, got %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down")
	}
}
