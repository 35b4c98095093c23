package control

import (
	"math"
	"time"

	"quadsim/internal/flight"
)

// SearchStep is one leg of the search cycle.
type SearchStep struct {
	Label   string         `yaml:"label" json:"label"`
	Command flight.Command `yaml:",inline" json:"command"`
}

// SearchConfig is the fixed-duration search cycle.
type SearchConfig struct {
	StepDuration time.Duration `yaml:"step_duration" json:"step_duration"`
	Steps        []SearchStep  `yaml:"steps" json:"steps"`
}

// DefaultSearch is the four-leg cycle used by the tuned profile.
func DefaultSearch() SearchConfig {
	const alt = 1.0
	return SearchConfig{
		StepDuration: 7 * time.Second,
		Steps: []SearchStep{
			{Label: "FORWARD", Command: flight.Command{Angle: -math.Pi / 2, Speed: 0.3, Altitude: alt}},
			{Label: "RIGHT", Command: flight.Command{Angle: 0, Speed: 0.45, Altitude: alt}},
			{Label: "BACKWARD", Command: flight.Command{Angle: math.Pi / 2, Speed: 0.3, Altitude: alt}},
			{Label: "LEFT", Command: flight.Command{Angle: math.Pi, Speed: 0.5, Altitude: alt}},
		},
	}
}

// SquareSearch is the equal-speed square used by the square profile.
func SquareSearch() SearchConfig {
	const alt, speed = 1.0, 0.25
	return SearchConfig{
		StepDuration: 2 * time.Second,
		Steps: []SearchStep{
			{Label: "RIGHT", Command: flight.Command{Angle: 0, Speed: speed, Altitude: alt}},
			{Label: "BACKWARD", Command: flight.Command{Angle: math.Pi / 2, Speed: speed, Altitude: alt}},
			{Label: "LEFT", Command: flight.Command{Angle: math.Pi, Speed: speed, Altitude: alt}},
			{Label: "FORWARD", Command: flight.Command{Angle: -math.Pi / 2, Speed: speed, Altitude: alt}},
		},
	}
}

// SearchState is the position within the cycle.
type SearchState struct {
	StepIndex int       `json:"step_index"`
	StepStart time.Time `json:"step_start"`
}

// SearchPattern yields the current search leg, advancing at most one leg per call.
type SearchPattern struct {
	cfg   SearchConfig
	state SearchState
}

// NewSearchPattern returns a pattern whose first call starts a session.
func NewSearchPattern(cfg SearchConfig) *SearchPattern {
	return &SearchPattern{cfg: cfg}
}

// Next returns the command for now. A late call advances once and restarts
// the leg timer at now; missed legs are not replayed.
func (p *SearchPattern) Next(now time.Time) flight.Command {
	return p.NextStep(now).Command
}

// NextStep is Next with the step label.
func (p *SearchPattern) NextStep(now time.Time) SearchStep {
	if len(p.cfg.Steps) == 0 {
		return SearchStep{}
	}
	if p.state.StepStart.IsZero() {
		p.state.StepStart = now
	}
	if now.Sub(p.state.StepStart) >= p.cfg.StepDuration {
		p.state.StepIndex = (p.state.StepIndex + 1) % len(p.cfg.Steps)
		p.state.StepStart = now
	}
	return p.cfg.Steps[p.state.StepIndex]
}

// Current returns the active leg without touching the timer.
func (p *SearchPattern) Current() SearchStep {
	if len(p.cfg.Steps) == 0 {
		return SearchStep{}
	}
	return p.cfg.Steps[p.state.StepIndex]
}

// Reset starts a new session on the next call.
func (p *SearchPattern) Reset() {
	p.state = SearchState{}
}

func (p *SearchPattern) State() SearchState { return p.state }
