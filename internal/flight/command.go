// Package flight holds the vehicle pose and the motion integrator that turns
// movement commands into smooth translation, rotation and altitude changes.
package flight

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Command is the motion instruction exchanged every tick between a
// controller and the integrator. When Hover is set the integrator ignores
// Angle and Speed; Altitude is always honored.
type Command struct {
	Hover    bool    `json:"hover" yaml:"hover"`
	Angle    float64 `json:"angle" yaml:"angle"`
	Speed    float64 `json:"speed" yaml:"speed"`
	Altitude float64 `json:"altitude" yaml:"altitude"`
}

// HoverAt returns a hold command targeting the given altitude.
func HoverAt(altitude float64) Command {
	return Command{Hover: true, Altitude: altitude}
}

func (c Command) String() string {
	if c.Hover {
		return fmt.Sprintf("hover alt=%.2f", c.Altitude)
	}
	return fmt.Sprintf("move angle=%.2f speed=%.2f alt=%.2f", c.Angle, c.Speed, c.Altitude)
}

// Pose is the vehicle position and heading. Y is altitude.
type Pose struct {
	Position r3.Vector `json:"position"`
	Heading  float64   `json:"heading"`
}

// Altitude returns the vertical component of the position.
func (p Pose) Altitude() float64 { return p.Position.Y }

// HorizontalDistance returns the ground-plane distance between the pose and (x, z).
func (p Pose) HorizontalDistance(x, z float64) float64 {
	return math.Hypot(p.Position.X-x, p.Position.Z-z)
}

// NormalizeAngle wraps a into (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}
