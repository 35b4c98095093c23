package flight

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// DefaultRotationGain is the per-second heading approach factor.
	DefaultRotationGain = 2.0
	// DefaultAltitudeGain is the per-second altitude approach factor.
	DefaultAltitudeGain = 0.4
)

// Gains are the exponential smoothing constants of the integrator.
type Gains struct {
	Rotation float64 `yaml:"rotation" json:"rotation"`
	Altitude float64 `yaml:"altitude" json:"altitude"`
}

// DefaultGains returns the reference smoothing constants.
func DefaultGains() Gains {
	return Gains{Rotation: DefaultRotationGain, Altitude: DefaultAltitudeGain}
}

// Integrator owns the vehicle pose and advances it once per tick using the
// active command. It never rejects a command: NaN or negative values are
// integrated as given.
type Integrator struct {
	gains Gains
	cmd   Command
	pose  Pose
}

// NewIntegrator places the vehicle at start holding its current altitude.
func NewIntegrator(start r3.Vector, gains Gains) *Integrator {
	return &Integrator{
		gains: gains,
		cmd:   HoverAt(start.Y),
		pose:  Pose{Position: start},
	}
}

// SetTarget replaces the active command. Last write wins.
func (in *Integrator) SetTarget(cmd Command) {
	in.cmd = cmd
}

// Target returns the active command.
func (in *Integrator) Target() Command { return in.cmd }

// Pose returns a snapshot of the current pose.
func (in *Integrator) Pose() Pose { return in.pose }

// SetPosition teleports the vehicle without touching the active command.
func (in *Integrator) SetPosition(x, y, z float64) {
	in.pose.Position = r3.Vector{X: x, Y: y, Z: z}
}

// Translate displaces the vehicle directly. Used by the discrete action mode.
func (in *Integrator) Translate(d r3.Vector) {
	in.pose.Position = in.pose.Position.Add(d)
}

// Tick advances the pose by dt seconds.
func (in *Integrator) Tick(dt float64) {
	cmd := in.cmd
	if !cmd.Hover {
		in.pose.Heading = unwrapToward(in.pose.Heading, cmd.Angle)
		in.pose.Heading += (cmd.Angle - in.pose.Heading) * in.gains.Rotation * dt

		// Displacement follows the smoothed heading, which produces curved turns.
		in.pose.Position.X += math.Cos(in.pose.Heading) * cmd.Speed * dt
		in.pose.Position.Z += math.Sin(in.pose.Heading) * cmd.Speed * dt
	}
	in.pose.Position.Y += (cmd.Altitude - in.pose.Position.Y) * in.gains.Altitude * dt
}

// unwrapToward shifts current by one turn when the raw difference to target
// exceeds half a turn, so interpolation takes the short way across ±π.
func unwrapToward(current, target float64) float64 {
	diff := target - current
	if diff > math.Pi {
		current += 2 * math.Pi
	} else if diff < -math.Pi {
		current -= 2 * math.Pi
	}
	return current
}
