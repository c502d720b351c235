package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage coevolve configuration",
		Long: `View and modify coevolve configuration settings.

Configuration is stored in ~/.coevolve/config.yaml.

Examples:
  coevolve config list                         # Show all settings
  coevolve config get utility.kind             # Get a specific setting
  coevolve config set utility.kind irtc        # Set a setting
  coevolve config set disease.gamma 0.25`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"utility.kind",
	"utility.alpha",
	"utility.beta",
	"utility.c",
	"utility.kappa",
	"utility.lamda",
	"disease.type",
	"disease.tau",
	"disease.gamma",
	"disease.severity",
	"disease.mu",
	"risk.r_sigma",
	"risk.r_pi",
	"population.size",
	"population.initial_infections",
	"population.topology",
	"simulation.max_rounds",
	"simulation.safety_margin",
	"simulation.seed",
	"simulation.workers",
	"simulation.indirect_policy",
	"simulation.agent_delay",
	"logging.level",
	"store.backend",
	"store.path",
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Configuration (~/.coevolve/config.yaml):")
			fmt.Fprintln(out)
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Fprintf(out, "  %-30s %v\n", key+":", value)
			}
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.CoevolveConfig, key string) (any, bool) {
	switch key {
	case "utility.kind":
		return cfg.Utility.Kind, true
	case "utility.alpha":
		return cfg.Utility.Alpha, true
	case "utility.beta":
		return cfg.Utility.Beta, true
	case "utility.c":
		return cfg.Utility.C, true
	case "utility.kappa":
		return cfg.Utility.Kappa, true
	case "utility.lamda":
		return cfg.Utility.Lamda, true
	case "disease.type":
		return cfg.Disease.Type, true
	case "disease.tau":
		return cfg.Disease.Tau, true
	case "disease.gamma":
		return cfg.Disease.Gamma, true
	case "disease.severity":
		return cfg.Disease.Severity, true
	case "disease.mu":
		return cfg.Disease.Mu, true
	case "risk.r_sigma":
		return cfg.Risk.RSigma, true
	case "risk.r_pi":
		return cfg.Risk.RPi, true
	case "population.size":
		return cfg.Population.Size, true
	case "population.initial_infections":
		return cfg.Population.InitialInfections, true
	case "population.topology":
		return cfg.Population.Topology, true
	case "simulation.max_rounds":
		return cfg.Simulation.MaxRounds, true
	case "simulation.safety_margin":
		return cfg.Simulation.SafetyMargin, true
	case "simulation.seed":
		return cfg.Simulation.Seed, true
	case "simulation.workers":
		return cfg.Simulation.Workers, true
	case "simulation.indirect_policy":
		return cfg.Simulation.IndirectPolicy, true
	case "simulation.agent_delay":
		return cfg.Simulation.AgentDelay.String(), true
	case "logging.level":
		return valueOrDefault(cfg.Logging.Level, "info"), true
	case "store.backend":
		return valueOrDefault(cfg.Store.Backend, "sqlite"), true
	case "store.path":
		return valueOrDefault(cfg.Store.Path, "(default)"), true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.CoevolveConfig, key, value string) error {
	var err error
	switch key {
	case "utility.kind":
		cfg.Utility.Kind = value
	case "utility.alpha":
		cfg.Utility.Alpha, err = strconv.ParseFloat(value, 64)
	case "utility.beta":
		cfg.Utility.Beta, err = strconv.ParseFloat(value, 64)
	case "utility.c":
		cfg.Utility.C, err = strconv.ParseFloat(value, 64)
	case "utility.kappa":
		cfg.Utility.Kappa, err = strconv.ParseFloat(value, 64)
	case "utility.lamda":
		cfg.Utility.Lamda, err = strconv.ParseFloat(value, 64)
	case "disease.type":
		cfg.Disease.Type = value
	case "disease.tau":
		cfg.Disease.Tau, err = strconv.Atoi(value)
	case "disease.gamma":
		cfg.Disease.Gamma, err = strconv.ParseFloat(value, 64)
	case "disease.severity":
		cfg.Disease.Severity, err = strconv.ParseFloat(value, 64)
	case "disease.mu":
		cfg.Disease.Mu, err = strconv.ParseFloat(value, 64)
	case "risk.r_sigma":
		cfg.Risk.RSigma, err = strconv.ParseFloat(value, 64)
	case "risk.r_pi":
		cfg.Risk.RPi, err = strconv.ParseFloat(value, 64)
	case "population.size":
		cfg.Population.Size, err = strconv.Atoi(value)
	case "population.initial_infections":
		cfg.Population.InitialInfections, err = strconv.Atoi(value)
	case "population.topology":
		cfg.Population.Topology = value
	case "simulation.max_rounds":
		cfg.Simulation.MaxRounds, err = strconv.Atoi(value)
	case "simulation.safety_margin":
		cfg.Simulation.SafetyMargin, err = strconv.Atoi(value)
	case "simulation.seed":
		cfg.Simulation.Seed, err = strconv.ParseUint(value, 10, 64)
	case "simulation.workers":
		cfg.Simulation.Workers, err = strconv.Atoi(value)
	case "simulation.indirect_policy":
		cfg.Simulation.IndirectPolicy = value
	case "simulation.agent_delay":
		cfg.Simulation.AgentDelay, err = time.ParseDuration(value)
	case "logging.level":
		cfg.Logging.Level = value
	case "store.backend":
		cfg.Store.Backend = value
	case "store.path":
		cfg.Store.Path = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q", key, value)
	}
	return nil
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
