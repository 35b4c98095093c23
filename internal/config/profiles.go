package config

import (
	"fmt"
	"sort"
	"time"

	"quadsim/internal/control"
	"quadsim/internal/flight"
)

// Named controller profiles.
const (
	ProfileTuned  = "tuned"
	ProfileSquare = "square"
	ProfileLegacy = "legacy"
)

var profiles = map[string]func() *FlightConfig{
	ProfileTuned:  Default,
	ProfileSquare: square,
	ProfileLegacy: legacy,
}

// Profile returns a fresh copy of the named profile. The empty name selects
// the tuned profile.
func Profile(name string) (*FlightConfig, error) {
	if name == "" {
		name = ProfileTuned
	}
	build, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidConfig, name)
	}
	return build(), nil
}

// Profiles lists the profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// square aligns with a loose threshold at fixed speed and searches in a small
// square without climbing first.
func square() *FlightConfig {
	cfg := Default()
	cfg.Profile = ProfileSquare
	c := &cfg.Controller
	c.AlignThreshold = 10
	c.Proportional = false
	c.FixedSpeed = 0.1
	c.ClimbFirst = false
	c.Search = control.SquareSearch()
	return cfg
}

// legacy drifts right until the marker appears and stops higher above it.
func legacy() *FlightConfig {
	cfg := Default()
	cfg.Profile = ProfileLegacy
	c := &cfg.Controller
	c.AlignThreshold = 10
	c.Proportional = false
	c.FixedSpeed = 0.1
	c.ClimbFirst = false
	c.DescentAltitude = 0.2
	c.Search = control.SearchConfig{
		StepDuration: time.Hour,
		Steps: []control.SearchStep{
			{Label: "RIGHT", Command: flight.Command{Angle: 0, Speed: 0.1, Altitude: 1.0}},
		},
	}
	return cfg
}
