package scenario

import (
	"math/rand"
	"testing"
	"time"

	"quadsim/internal/queue"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestLoadScenario(t *testing.T) {
	sc, err := Load("testdata/box.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	if sc.Name != "box" {
		t.Fatalf("unexpected name %s", sc.Name)
	}
	if sc.Description != "short test box" {
		t.Fatalf("unexpected description %s", sc.Description)
	}
	if len(sc.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(sc.Steps))
	}
	if sc.Steps[1].Duration != 500*time.Millisecond {
		t.Fatalf("unexpected hold duration %v", sc.Steps[1].Duration)
	}
	if sc.Steps[2].Speed != 1 {
		t.Fatalf("expected default speed 1, got %v", sc.Steps[2].Speed)
	}
}

func TestLoadScenarioRejectsUnknownAction(t *testing.T) {
	if _, err := Load("testdata/bad.yaml"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestRunnerPlaysStepsInOrder(t *testing.T) {
	sc, err := Load("testdata/box.yaml")
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	sched := queue.NewScheduler(0)
	r := NewRunner(sc)

	var started []string
	for ms := 0; ms <= 4000; ms += 10 {
		now := t0.Add(time.Duration(ms) * time.Millisecond)
		sched.Tick(now)
		if st, ok := r.Tick(now, sched); ok {
			started = append(started, st.Action)
			sched.Tick(now)
		}
	}
	want := []string{"forward", "stop", "right"}
	if len(started) != len(want) {
		t.Fatalf("expected %v, got %v", want, started)
	}
	for i := range want {
		if started[i] != want[i] {
			t.Fatalf("step %d: expected %s, got %s", i, want[i], started[i])
		}
	}
	if !r.Done() || !sched.Idle() {
		t.Fatalf("expected runner done and scheduler idle")
	}
}

func TestRunnerHoldsDuringStop(t *testing.T) {
	sc := &Scenario{Steps: []Step{
		{Action: ActionStop, Duration: time.Second},
		{Action: "up", Speed: 1, Duration: time.Second},
	}}
	if err := sc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	sched := queue.NewScheduler(0)
	r := NewRunner(sc)

	if st, ok := r.Tick(t0, sched); !ok || st.Action != ActionStop {
		t.Fatalf("expected stop first, got %+v", st)
	}
	if _, ok := r.Tick(t0.Add(999*time.Millisecond), sched); ok {
		t.Fatal("runner must wait out the hold")
	}
	if st, ok := r.Tick(t0.Add(time.Second), sched); !ok || st.Action != "up" {
		t.Fatalf("expected up after hold, got %+v", st)
	}
}

func TestRunnerLoops(t *testing.T) {
	sc, ok := Pick("square", 0)
	if !ok {
		t.Fatal("square not found")
	}
	sched := queue.NewScheduler(0)
	r := NewRunner(sc)

	count := 0
	for s := 0; s <= 20; s++ {
		now := t0.Add(time.Duration(s) * time.Second)
		sched.Tick(now)
		if _, ok := r.Tick(now, sched); ok {
			count++
			sched.Tick(now)
		}
	}
	// A new side starts every two seconds: 0, 2, ..., 20.
	if count != 11 {
		t.Fatalf("expected 11 starts, got %d", count)
	}
	if r.Done() {
		t.Fatal("looping scenario never finishes")
	}
}

func TestBuiltInScenariosValidate(t *testing.T) {
	for name, sc := range BuiltIn() {
		if err := sc.Validate(); err != nil {
			t.Errorf("built-in %s invalid: %v", name, err)
		}
	}
	if _, ok := Pick("cartwheel", 0); ok {
		t.Error("unexpected scenario")
	}
}

func TestRandomIsSeeded(t *testing.T) {
	a := Random(rand.New(rand.NewSource(7)), 16)
	b := Random(rand.New(rand.NewSource(7)), 16)
	if len(a.Steps) != 16 {
		t.Fatalf("expected 16 steps, got %d", len(a.Steps))
	}
	for i := range a.Steps {
		if a.Steps[i] != b.Steps[i] {
			t.Fatalf("step %d differs: %+v vs %+v", i, a.Steps[i], b.Steps[i])
		}
		if a.Steps[i].Duration != 1500*time.Millisecond {
			t.Fatalf("unexpected duration %v", a.Steps[i].Duration)
		}
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("random scenario invalid: %v", err)
	}
}
