package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/geo/r3"
)

// Kind is a discrete maneuver direction.
type Kind string

const (
	Forward  Kind = "forward"
	Backward Kind = "backward"
	Left     Kind = "left"
	Right    Kind = "right"
	Up       Kind = "up"
	Down     Kind = "down"
)

// Kinds lists every maneuver in a stable order.
var Kinds = []Kind{Forward, Backward, Left, Right, Up, Down}

var directions = map[Kind]r3.Vector{
	Forward:  {Z: -1},
	Backward: {Z: 1},
	Left:     {X: -1},
	Right:    {X: 1},
	Up:       {Y: 1},
	Down:     {Y: -1},
}

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := directions[k]; !ok {
		return "", fmt.Errorf("unknown action kind %q", s)
	}
	return k, nil
}

// Direction is the unit vector for the kind in scene axes.
func (k Kind) Direction() r3.Vector { return directions[k] }

// Action is a timed maneuver. EndTime is set when the action is promoted.
type Action struct {
	Kind        Kind          `json:"kind"`
	SpeedFactor float64       `json:"speed_factor"`
	Duration    time.Duration `json:"duration"`
	EndTime     time.Time     `json:"end_time,omitempty"`
}

func (a Action) sameAs(b Action) bool {
	return a.Kind == b.Kind && a.SpeedFactor == b.SpeedFactor && a.Duration == b.Duration
}
