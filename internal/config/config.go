// Package config provides unified configuration loading for coevolve.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/coevolve/internal/constants"
	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/simulation"
	"github.com/nvandessel/coevolve/internal/stats"
	"github.com/nvandessel/coevolve/internal/utility"
)

// CoevolveConfig contains all coevolve configuration settings.
type CoevolveConfig struct {
	// Utility selects and parameterizes the agents' utility function.
	Utility UtilityConfig `json:"utility" yaml:"utility"`

	// Disease describes the infection that spreads during a run.
	Disease disease.Specs `json:"disease" yaml:"disease"`

	// Risk holds the agents' risk perception exponents.
	Risk RiskConfig `json:"risk" yaml:"risk"`

	// Population describes the initial network.
	Population PopulationConfig `json:"population" yaml:"population"`

	// Simulation contains round loop settings.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store configures where finished rounds are recorded.
	Store StoreConfig `json:"store" yaml:"store"`
}

// UtilityConfig configures the utility function. Parameters a kind does not
// use are ignored.
type UtilityConfig struct {
	// Kind is one of "cumulative", "truncated-connections", "irtc", "cidmo".
	Kind  string  `json:"kind" yaml:"kind"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	C     float64 `json:"c" yaml:"c"`
	Kappa float64 `json:"kappa" yaml:"kappa"`
	Lamda float64 `json:"lamda" yaml:"lamda"`
}

// RiskConfig holds the exponents applied to severity (RSigma) and
// probability of infection (RPi).
type RiskConfig struct {
	RSigma float64 `json:"r_sigma" yaml:"r_sigma"`
	RPi    float64 `json:"r_pi" yaml:"r_pi"`
}

// PopulationConfig describes the network a run starts from.
type PopulationConfig struct {
	Size              int    `json:"size" yaml:"size"`
	InitialInfections int    `json:"initial_infections" yaml:"initial_infections"`
	Topology          string `json:"topology" yaml:"topology"`
}

// SimulationConfig contains round loop settings.
type SimulationConfig struct {
	MaxRounds    int    `json:"max_rounds" yaml:"max_rounds"`
	SafetyMargin int    `json:"safety_margin" yaml:"safety_margin"`
	Seed         uint64 `json:"seed" yaml:"seed"`

	// Workers > 1 evaluates tie decisions on a worker pool.
	Workers int `json:"workers" yaml:"workers"`

	// AgentDelay paces the decision phase, e.g. "50ms".
	AgentDelay time.Duration `json:"agent_delay,omitempty" yaml:"agent_delay,omitempty"`

	// IndirectPolicy is "per-traversal" (default) or "distinct".
	IndirectPolicy string `json:"indirect_policy" yaml:"indirect_policy"`
}

// LoggingConfig configures coevolve's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to .coevolve/decisions.jsonl.
	// "trace" additionally logs every evaluated proposal to stderr.
	Level string `json:"level" yaml:"level"`
}

// StoreConfig configures the run recorder.
type StoreConfig struct {
	// Backend is "sqlite" (default) or "memory".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database file. Supports ${VAR} syntax.
	// Empty means .coevolve/runs.db under the project root.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a CoevolveConfig with sensible defaults.
func Default() *CoevolveConfig {
	return &CoevolveConfig{
		Utility: UtilityConfig{
			Kind:  utility.CIDMo.String(),
			Alpha: constants.DefaultAlpha,
			Beta:  constants.DefaultBeta,
			C:     constants.DefaultCost,
			Kappa: constants.DefaultKappa,
			Lamda: constants.DefaultLamda,
		},
		Disease: disease.Specs{
			Type:     constants.DefaultDiseaseType,
			Tau:      constants.DefaultTau,
			Severity: constants.DefaultSeverity,
			Gamma:    constants.DefaultGamma,
			Mu:       constants.DefaultMu,
		},
		Risk: RiskConfig{
			RSigma: constants.DefaultRSigma,
			RPi:    constants.DefaultRPi,
		},
		Population: PopulationConfig{
			Size:              constants.DefaultPopulation,
			InitialInfections: constants.DefaultInitialInfections,
			Topology:          "empty",
		},
		Simulation: SimulationConfig{
			MaxRounds:      constants.DefaultMaxRounds,
			SafetyMargin:   constants.DefaultSafetyMargin,
			Seed:           constants.DefaultSeed,
			Workers:        constants.DefaultWorkers,
			IndirectPolicy: stats.IndirectPerTraversal.String(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
	}
}

// DefaultPath returns ~/.coevolve/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DataDirName, "config.yaml"), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.coevolve/config.yaml -> environment variables
func Load() (*CoevolveConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*CoevolveConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Save writes the configuration to path as YAML, creating parent directories.
func (c *CoevolveConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *CoevolveConfig) Validate() error {
	if _, err := c.Function(); err != nil {
		return err
	}

	if err := c.Disease.Validate(); err != nil {
		return fmt.Errorf("disease: %w", err)
	}

	if c.Risk.RSigma < 0 || c.Risk.RPi < 0 {
		return fmt.Errorf("risk exponents must be non-negative, got r_sigma=%f r_pi=%f", c.Risk.RSigma, c.Risk.RPi)
	}

	if c.Population.Size < 0 {
		return fmt.Errorf("population size must be non-negative, got %d", c.Population.Size)
	}
	if c.Population.InitialInfections < 0 || c.Population.InitialInfections > c.Population.Size {
		return fmt.Errorf("initial_infections must be between 0 and %d, got %d", c.Population.Size, c.Population.InitialInfections)
	}
	if _, err := simulation.ParseTopology(c.Population.Topology); err != nil {
		return err
	}

	if _, err := stats.ParseIndirectPolicy(c.Simulation.IndirectPolicy); err != nil {
		return err
	}
	if _, err := c.Params(); err != nil {
		return err
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	validBackends := map[string]bool{"": true, "sqlite": true, "memory": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store backend: %s (valid: sqlite, memory)", c.Store.Backend)
	}

	return nil
}

// Function builds the configured utility function.
func (c *CoevolveConfig) Function() (utility.Function, error) {
	kind, err := utility.ParseKind(c.Utility.Kind)
	if err != nil {
		return utility.Function{}, err
	}

	u := c.Utility
	switch kind {
	case utility.Cumulative:
		return utility.NewCumulative(u.Alpha, u.Beta), nil
	case utility.TruncatedConnections:
		return utility.NewTruncatedConnections(u.Alpha, u.C), nil
	case utility.IRTC:
		return utility.NewIRTC(u.Alpha, u.Beta, u.C), nil
	default:
		return utility.NewCIDMo(u.Alpha, u.Kappa, u.Beta, u.Lamda, u.C), nil
	}
}

// Params converts the simulation settings to engine parameters.
func (c *CoevolveConfig) Params() (simulation.Params, error) {
	policy, err := stats.ParseIndirectPolicy(c.Simulation.IndirectPolicy)
	if err != nil {
		return simulation.Params{}, err
	}

	p := simulation.Params{
		MaxRounds:      c.Simulation.MaxRounds,
		SafetyMargin:   c.Simulation.SafetyMargin,
		Seed:           c.Simulation.Seed,
		Workers:        c.Simulation.Workers,
		AgentDelay:     c.Simulation.AgentDelay,
		Specs:          c.Disease,
		IndirectPolicy: policy,
	}
	if err := p.Validate(); err != nil {
		return simulation.Params{}, err
	}
	return p, nil
}

// Scenario converts the population settings to a buildable scenario.
func (c *CoevolveConfig) Scenario() (simulation.Scenario, error) {
	fn, err := c.Function()
	if err != nil {
		return simulation.Scenario{}, err
	}
	topology, err := simulation.ParseTopology(c.Population.Topology)
	if err != nil {
		return simulation.Scenario{}, err
	}

	return simulation.Scenario{
		Population:        c.Population.Size,
		Function:          fn,
		Specs:             c.Disease,
		RSigma:            c.Risk.RSigma,
		RPi:               c.Risk.RPi,
		Topology:          topology,
		InitialInfections: c.Population.InitialInfections,
	}, nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Unparseable numbers are ignored and leave the previous value in place.
func applyEnvOverrides(config *CoevolveConfig) {
	if v := os.Getenv("COEVOLVE_UTILITY"); v != "" {
		config.Utility.Kind = v
	}
	envFloat("COEVOLVE_ALPHA", &config.Utility.Alpha)
	envFloat("COEVOLVE_BETA", &config.Utility.Beta)
	envFloat("COEVOLVE_COST", &config.Utility.C)

	envInt("COEVOLVE_TAU", &config.Disease.Tau)
	envFloat("COEVOLVE_GAMMA", &config.Disease.Gamma)
	envFloat("COEVOLVE_SEVERITY", &config.Disease.Severity)

	envInt("COEVOLVE_POPULATION", &config.Population.Size)
	envInt("COEVOLVE_INITIAL_INFECTIONS", &config.Population.InitialInfections)
	if v := os.Getenv("COEVOLVE_TOPOLOGY"); v != "" {
		config.Population.Topology = v
	}

	envInt("COEVOLVE_MAX_ROUNDS", &config.Simulation.MaxRounds)
	envInt("COEVOLVE_WORKERS", &config.Simulation.Workers)
	if v := os.Getenv("COEVOLVE_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}

	if v := os.Getenv("COEVOLVE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("COEVOLVE_STORE_BACKEND"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("COEVOLVE_STORE_PATH"); v != "" {
		config.Store.Path = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
