package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quadsim/internal/config"
	"quadsim/internal/logging"
)

var (
	configPath string
	schemaPath string
	profile    string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "quadsim",
	Short: "Quadrotor visual landing simulator",
	Long:  "quadsim flies a simulated quadrotor that searches for a red marker with its bottom camera, aligns over it and lands.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		lvl, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		l := logging.New(os.Stderr, lvl, logFormat)
		slog.SetDefault(l)
		cmd.SetContext(logging.NewContext(cmd.Context(), l))
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config when set, and the --profile preset otherwise.
func loadConfig() (*config.FlightConfig, error) {
	if configPath == "" {
		return config.Profile(profile)
	}
	return config.Load(configPath, schemaPath)
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the built-in controller profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range config.Profiles() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config/flight.yaml", "Path to flight configuration YAML (empty uses --profile)")
	pf.StringVar(&schemaPath, "schema", "schemas/flight.cue", "Path to CUE schema file (empty skips schema validation)")
	pf.StringVar(&profile, "profile", config.ProfileTuned, "Built-in profile used when --config is empty")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(profilesCmd)
}
