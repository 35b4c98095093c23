// Package control turns detections into flight commands: align over a visible
// marker, descend once centered, and fly a timed search pattern otherwise.
package control

import (
	"fmt"
	"math"
	"time"

	"quadsim/internal/flight"
	"quadsim/internal/vision"
)

// Config holds the controller constants. Static per session.
type Config struct {
	AlignThreshold    float64      `yaml:"align_threshold" json:"align_threshold"`
	HysteresisPx      float64      `yaml:"hysteresis_px" json:"hysteresis_px"`
	Proportional      bool         `yaml:"proportional" json:"proportional"`
	FixedSpeed        float64      `yaml:"fixed_speed" json:"fixed_speed"`
	MinSpeed          float64      `yaml:"min_speed" json:"min_speed"`
	MaxSpeed          float64      `yaml:"max_speed" json:"max_speed"`
	SpeedScale        float64      `yaml:"speed_scale" json:"speed_scale"`
	SearchAltitude    float64      `yaml:"search_altitude" json:"search_altitude"`
	DescentAltitude   float64      `yaml:"descent_altitude" json:"descent_altitude"`
	LandingEpsilon    float64      `yaml:"landing_epsilon" json:"landing_epsilon"`
	ClimbFirst        bool         `yaml:"climb_first" json:"climb_first"`
	MinSearchAltitude float64      `yaml:"min_search_altitude" json:"min_search_altitude"`
	ClimbAltitude     float64      `yaml:"climb_altitude" json:"climb_altitude"`
	Search            SearchConfig `yaml:"search" json:"search"`
}

// DefaultConfig is the tuned controller: tight threshold, proportional speed,
// climb before searching.
func DefaultConfig() Config {
	return Config{
		AlignThreshold:    5,
		Proportional:      true,
		FixedSpeed:        0.1,
		MinSpeed:          0.1,
		MaxSpeed:          0.3,
		SpeedScale:        100,
		SearchAltitude:    1.0,
		DescentAltitude:   0.1,
		LandingEpsilon:    0.05,
		ClimbFirst:        true,
		MinSearchAltitude: 1.0,
		ClimbAltitude:     1.2,
		Search:            DefaultSearch(),
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.AlignThreshold <= 0:
		return fmt.Errorf("align_threshold must be positive, got %v", c.AlignThreshold)
	case c.HysteresisPx < 0:
		return fmt.Errorf("hysteresis_px must not be negative, got %v", c.HysteresisPx)
	case c.MinSpeed > c.MaxSpeed:
		return fmt.Errorf("min_speed %v exceeds max_speed %v", c.MinSpeed, c.MaxSpeed)
	case c.Proportional && c.SpeedScale <= 0:
		return fmt.Errorf("speed_scale must be positive, got %v", c.SpeedScale)
	case c.LandingEpsilon < 0:
		return fmt.Errorf("landing_epsilon must not be negative, got %v", c.LandingEpsilon)
	case c.Search.StepDuration <= 0:
		return fmt.Errorf("search step_duration must be positive, got %v", c.Search.StepDuration)
	case len(c.Search.Steps) == 0:
		return fmt.Errorf("search steps must not be empty")
	}
	return nil
}

// AlignmentState is the pixel error of the detected center from frame center.
type AlignmentState struct {
	XOffset float64 `json:"x_offset"`
	YOffset float64 `json:"y_offset"`
	Aligned bool    `json:"aligned"`
}

// Decision is the outcome of one controller step.
type Decision struct {
	Command   flight.Command `json:"command"`
	Mode      Mode           `json:"mode"`
	Alignment AlignmentState `json:"alignment"`
	Search    SearchState    `json:"search"`
	Label     string         `json:"label,omitempty"`
}

// Controller decides the next command from a detection. Apart from the
// search timer and the optional hysteresis latch it keeps no state.
type Controller struct {
	cfg        Config
	search     *SearchPattern
	newSession bool
	wasAligned bool
}

// New returns a controller for cfg.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:        cfg,
		search:     NewSearchPattern(cfg.Search),
		newSession: true,
	}
}

func (c *Controller) Config() Config { return c.cfg }

// Step maps a detection on a frameW×frameH frame at the given altitude to a
// command. It never fails.
func (c *Controller) Step(det vision.DetectionResult, frameW, frameH int, altitude float64, now time.Time) Decision {
	if !det.Found {
		c.wasAligned = false
		if c.cfg.ClimbFirst && altitude < c.cfg.MinSearchAltitude {
			c.newSession = true
			return Decision{Command: flight.HoverAt(c.cfg.ClimbAltitude), Mode: ModeClimb, Label: "CLIMB"}
		}
		return c.searchDecision(now)
	}

	align := c.alignment(det, frameW, frameH)
	c.wasAligned = align.Aligned
	if !align.Aligned {
		return Decision{Command: c.correction(align), Mode: ModeAlign, Alignment: align, Search: c.search.State()}
	}

	mode := ModeLanded
	if math.Abs(altitude-c.cfg.DescentAltitude) > c.cfg.LandingEpsilon {
		mode = ModeDescend
	}
	return Decision{
		Command:   flight.HoverAt(c.cfg.DescentAltitude),
		Mode:      mode,
		Alignment: align,
		Search:    c.search.State(),
	}
}

// SearchCommand returns the current search leg, starting a session if needed.
func (c *Controller) SearchCommand(now time.Time) flight.Command {
	return c.searchDecision(now).Command
}

func (c *Controller) searchDecision(now time.Time) Decision {
	if c.newSession {
		c.search.Reset()
		c.newSession = false
	}
	step := c.search.NextStep(now)
	return Decision{Command: step.Command, Mode: ModeSearch, Search: c.search.State(), Label: step.Label}
}

func (c *Controller) alignment(det vision.DetectionResult, frameW, frameH int) AlignmentState {
	x := det.Center.X - float64(frameW)/2
	y := det.Center.Y - float64(frameH)/2
	threshold := c.cfg.AlignThreshold
	if c.wasAligned {
		threshold += c.cfg.HysteresisPx
	}
	return AlignmentState{
		XOffset: x,
		YOffset: y,
		Aligned: math.Abs(x) <= threshold && math.Abs(y) <= threshold,
	}
}

// correction moves along the dominant error axis. Image right is +X and image
// down is +Z, so the angles map straight onto integrator headings.
func (c *Controller) correction(a AlignmentState) flight.Command {
	var angle float64
	if math.Abs(a.XOffset) > math.Abs(a.YOffset) {
		if a.XOffset < 0 {
			angle = math.Pi
		}
	} else if a.YOffset > 0 {
		angle = math.Pi / 2
	} else {
		angle = -math.Pi / 2
	}

	speed := c.cfg.FixedSpeed
	if c.cfg.Proportional {
		speed = clamp(math.Hypot(a.XOffset, a.YOffset)/c.cfg.SpeedScale, c.cfg.MinSpeed, c.cfg.MaxSpeed)
	}
	return flight.Command{Angle: angle, Speed: speed, Altitude: c.cfg.SearchAltitude}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// OverlayLines renders the decision as status text for annotated frames.
func (d Decision) OverlayLines() []string {
	switch d.Mode {
	case ModeSearch, ModeClimb:
		return []string{"Searching...", "Action: " + d.Label}
	}
	status := "Aligning"
	if d.Alignment.Aligned {
		status = "Aligned"
	}
	return []string{
		"Red Circle Detected",
		"Alignment: " + status,
		fmt.Sprintf("Offset: X=%.1f, Y=%.1f", d.Alignment.XOffset, d.Alignment.YOffset),
		"Mode: " + d.Mode.String(),
	}
}
