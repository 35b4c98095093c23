// Package queue runs timed discrete maneuvers one at a time in FIFO order.
package queue

import (
	"time"

	"github.com/golang/geo/r3"
)

// DefaultMaxSpeed is the translation speed in scene units per second at a
// speed factor of one.
const DefaultMaxSpeed = 0.3

// Mover receives the per-tick displacement of the active action.
type Mover interface {
	Translate(d r3.Vector)
}

// Scheduler holds pending actions and at most one active action. Expiry and
// promotion happen only in Tick so that timing follows the injected clock.
type Scheduler struct {
	maxSpeed float64
	pending  []Action
	active   *Action
	velocity r3.Vector
	memo     *Action
}

// NewScheduler returns an idle scheduler. A non-positive maxSpeed selects
// DefaultMaxSpeed.
func NewScheduler(maxSpeed float64) *Scheduler {
	if maxSpeed <= 0 {
		maxSpeed = DefaultMaxSpeed
	}
	return &Scheduler{maxSpeed: maxSpeed}
}

// Enqueue appends an action. It reports false when the duration is not
// positive or the action repeats the last accepted one or one already pending.
func (s *Scheduler) Enqueue(kind Kind, speedFactor float64, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	a := Action{Kind: kind, SpeedFactor: speedFactor, Duration: d}
	if s.memo != nil && s.memo.sameAs(a) {
		return false
	}
	for _, p := range s.pending {
		if p.sameAs(a) {
			return false
		}
	}
	s.pending = append(s.pending, a)
	s.memo = &a
	return true
}

// Tick expires the active action when its end time has passed and promotes
// the next pending one.
func (s *Scheduler) Tick(now time.Time) {
	if s.active != nil && !now.Before(s.active.EndTime) {
		s.Stop()
	}
	if s.active == nil && len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		next.EndTime = now.Add(next.Duration)
		s.active = &next
		s.velocity = next.Kind.Direction().Mul(s.maxSpeed * next.SpeedFactor)
	}
}

// Advance moves m by the current velocity over dt seconds.
func (s *Scheduler) Advance(dt float64, m Mover) {
	if s.velocity == (r3.Vector{}) {
		return
	}
	m.Translate(s.velocity.Mul(dt))
}

// Stop halts the active action and forgets the memo. Pending actions remain.
func (s *Scheduler) Stop() {
	s.active = nil
	s.velocity = r3.Vector{}
	s.memo = nil
}

// Clear stops and drops every pending action.
func (s *Scheduler) Clear() {
	s.Stop()
	s.pending = nil
}

// Active returns the running action, if any.
func (s *Scheduler) Active() (Action, bool) {
	if s.active == nil {
		return Action{}, false
	}
	return *s.active, true
}

// Pending returns a copy of the waiting actions in order.
func (s *Scheduler) Pending() []Action {
	return append([]Action(nil), s.pending...)
}

// Idle reports whether nothing is running or waiting.
func (s *Scheduler) Idle() bool {
	return s.active == nil && len(s.pending) == 0
}

func (s *Scheduler) Velocity() r3.Vector { return s.velocity }
