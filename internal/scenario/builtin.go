package scenario

import (
	"math/rand"
	"time"

	"quadsim/internal/queue"
)

// BuiltIn returns predefined scripted flights.
func BuiltIn() map[string]Scenario {
	return map[string]Scenario{
		"square": {
			Name:        "square",
			Description: "Fly a square at full speed, two seconds per side.",
			Loop:        true,
			Steps: []Step{
				{Action: string(queue.Forward), Speed: 1, Duration: 2 * time.Second},
				{Action: string(queue.Right), Speed: 1, Duration: 2 * time.Second},
				{Action: string(queue.Backward), Speed: 1, Duration: 2 * time.Second},
				{Action: string(queue.Left), Speed: 1, Duration: 2 * time.Second},
			},
		},
		"hop": {
			Name:        "hop",
			Description: "Climb, hold, and settle back down.",
			Steps: []Step{
				{Action: string(queue.Up), Speed: 1, Duration: 3 * time.Second},
				{Action: ActionStop, Duration: time.Second},
				{Action: string(queue.Down), Speed: 0.5, Duration: 6 * time.Second},
			},
		},
	}
}

// Pick returns a built-in by name. "random" is generated from seed.
func Pick(name string, seed int64) (*Scenario, bool) {
	if name == "random" {
		sc := Random(rand.New(rand.NewSource(seed)), 32)
		return &sc, true
	}
	sc, ok := BuiltIn()[name]
	if !ok {
		return nil, false
	}
	return &sc, true
}

// randomStepDuration matches the interval at which the random pilot changes its mind.
const randomStepDuration = 1500 * time.Millisecond

// Random builds a looping scenario of n actions drawn uniformly from every
// kind plus stop.
func Random(rng *rand.Rand, n int) Scenario {
	choices := append([]string{}, ActionStop)
	for _, k := range queue.Kinds {
		choices = append(choices, string(k))
	}
	steps := make([]Step, n)
	for i := range steps {
		steps[i] = Step{Action: choices[rng.Intn(len(choices))], Speed: 1, Duration: randomStepDuration}
	}
	return Scenario{
		Name:        "random",
		Description: "Random action every 1.5 seconds.",
		Loop:        true,
		Steps:       steps,
	}
}
