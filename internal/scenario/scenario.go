// Package scenario describes scripted flights as timed discrete actions and
// feeds them into the action scheduler.
package scenario

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"quadsim/internal/queue"
)

// ActionStop halts the vehicle for the step duration.
const ActionStop = "stop"

// Scenario is an ordered list of timed actions.
type Scenario struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
	Loop        bool   `yaml:"loop,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is one maneuver: a queue kind or "stop".
type Step struct {
	Action   string        `yaml:"action"`
	Speed    float64       `yaml:"speed,omitempty"`
	Duration time.Duration `yaml:"duration"`
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks every step and fills in the default speed factor of one.
func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.Duration <= 0 {
			return fmt.Errorf("step %d: duration must be positive", i)
		}
		if st.Action == ActionStop {
			continue
		}
		if _, err := queue.ParseKind(st.Action); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		if st.Speed == 0 {
			st.Speed = 1
		}
		if st.Speed < 0 {
			return fmt.Errorf("step %d: speed must not be negative", i)
		}
	}
	return nil
}

// Runner plays a scenario into a scheduler, one step whenever it goes idle.
type Runner struct {
	sc        *Scenario
	next      int
	holdUntil time.Time
	done      bool
}

func NewRunner(sc *Scenario) *Runner {
	return &Runner{sc: sc}
}

// Tick starts the next step when the scheduler is idle and no hold is
// running. It reports the step it started.
func (r *Runner) Tick(now time.Time, s *queue.Scheduler) (Step, bool) {
	if r.done || now.Before(r.holdUntil) || !s.Idle() {
		return Step{}, false
	}
	if r.next >= len(r.sc.Steps) {
		if !r.sc.Loop {
			r.done = true
			return Step{}, false
		}
		r.next = 0
	}
	step := r.sc.Steps[r.next]
	r.next++

	if step.Action == ActionStop {
		s.Stop()
		r.holdUntil = now.Add(step.Duration)
		return step, true
	}
	kind, err := queue.ParseKind(step.Action)
	if err != nil {
		return Step{}, false
	}
	s.Enqueue(kind, step.Speed, step.Duration)
	return step, true
}

// Done reports whether a non-looping scenario has started its last step and
// the scheduler has drained.
func (r *Runner) Done() bool { return r.done }

func (r *Runner) Scenario() *Scenario { return r.sc }
