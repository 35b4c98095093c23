package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quadsim/internal/scenario"
)

var (
	scriptOpts     runOptions
	scriptScenario string
	scriptSeed     int64
)

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Fly timed discrete actions instead of the vision loop",
	Long:  "script plays a scenario of forward/backward/left/right/up/down/stop steps through the action queue. Actions can also be queued over the admin API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := resolveScenario(scriptScenario, scriptSeed)
		if err != nil {
			return err
		}
		return runFlight(cmd.Context(), scriptOpts, sc)
	},
}

// resolveScenario accepts a built-in name, "random" or a YAML file path. An
// empty name yields an empty scenario driven only through the admin API.
func resolveScenario(name string, seed int64) (*scenario.Scenario, error) {
	if name == "" {
		return &scenario.Scenario{Name: "manual"}, nil
	}
	if sc, ok := scenario.Pick(name, seed); ok {
		return sc, nil
	}
	if _, err := os.Stat(name); err == nil {
		return scenario.Load(name)
	}
	names := []string{"random"}
	for n := range scenario.BuiltIn() {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown scenario %q (built-in: %s, or a YAML file)", name, strings.Join(names, ", "))
}

func init() {
	addRunFlags(scriptCmd, &scriptOpts)
	f := scriptCmd.Flags()
	f.StringVar(&scriptScenario, "scenario", "square", "Built-in scenario name, \"random\" or a scenario YAML file")
	f.Int64Var(&scriptSeed, "seed", time.Now().UnixNano(), "Seed for the random scenario")
}
