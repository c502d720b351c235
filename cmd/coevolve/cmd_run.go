package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/export"
	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/session"
	"github.com/nvandessel/coevolve/internal/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run one simulation and record it.

Settings come from ~/.coevolve/config.yaml (or --config), then COEVOLVE_*
environment variables, then the flags below. The run ends at the round cap
or once the network has been stable for the safety margin with no infection
left. Ctrl-C stops the run after the current agent; the partial run is
still recorded.

Examples:
  coevolve run                                       # Run with configured defaults
  coevolve run --population 100 --topology ring      # Override the initial network
  coevolve run --utility irtc --alpha 10 --beta 8 --cost 9
  coevolve run --export edges --output network.csv   # Export the final network`,
		RunE: runSimulation,
	}

	cmd.Flags().String("config", "", "Load settings from this YAML file instead of ~/.coevolve/config.yaml")
	cmd.Flags().String("utility", "", "Utility function: cumulative, truncated-connections, irtc, cidmo")
	cmd.Flags().Float64("alpha", 0, "Benefit of one direct tie")
	cmd.Flags().Float64("beta", 0, "Benefit of one indirect contact")
	cmd.Flags().Float64("cost", 0, "Maintenance cost of one direct tie")
	cmd.Flags().Int("population", 0, "Number of agents")
	cmd.Flags().String("topology", "", "Initial network: empty, full, ring, star")
	cmd.Flags().Int("infections", 0, "Agents infected before the first round")
	cmd.Flags().Int("tau", 0, "Rounds an infection lasts")
	cmd.Flags().Float64("gamma", 0, "Per contact transmission probability per round")
	cmd.Flags().Float64("severity", 0, "Utility penalty of being infected")
	cmd.Flags().Int("max-rounds", 0, "Round cap")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().Int("workers", 0, "Evaluate tie decisions on this many goroutines")
	cmd.Flags().String("policy", "", "Indirect contact counting: per-traversal, distinct")
	cmd.Flags().Duration("delay", 0, "Pause between agent decisions, e.g. 50ms")
	cmd.Flags().String("store", "", "Run store backend: sqlite, memory")
	cmd.Flags().String("log-level", "", "Log level: info, debug, trace")
	cmd.Flags().String("export", "", "Export the final network: matrix, edges, dot, json")
	cmd.Flags().StringP("output", "o", "", "Write the export to this file instead of stdout")

	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	jsonOut, _ := cmd.Flags().GetBool("json")
	exportFormat, _ := cmd.Flags().GetString("export")
	outPath, _ := cmd.Flags().GetString("output")

	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	var format export.Format
	if exportFormat != "" {
		if format, err = export.ParseFormat(exportFormat); err != nil {
			return err
		}
	}

	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())

	ctx, stop := withShutdownSignals(cmd.Context())
	defer stop()

	sess, err := session.Open(ctx, cfg, session.Options{Root: root, Logger: logger})
	if err != nil {
		return err
	}
	defer sess.Close()

	summary, err := sess.Run(ctx)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return fmt.Errorf("run %s: %w", sess.RunID(), err)
	}

	if format != "" {
		if err := writeExport(cmd, sess, format, outPath); err != nil {
			logger.Warn("export failed", "format", string(format), "error", err)
		}
	}

	if jsonOut {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
			"run_id":  sess.RunID(),
			"summary": summary,
		})
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

// loadRunConfig reads --config when given, the user configuration otherwise.
func loadRunConfig(cmd *cobra.Command) (*config.CoevolveConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// applyRunFlags overrides cfg with every flag the user set explicitly.
func applyRunFlags(cmd *cobra.Command, cfg *config.CoevolveConfig) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}

	set("utility", func() (e error) { cfg.Utility.Kind, e = f.GetString("utility"); return })
	set("alpha", func() (e error) { cfg.Utility.Alpha, e = f.GetFloat64("alpha"); return })
	set("beta", func() (e error) { cfg.Utility.Beta, e = f.GetFloat64("beta"); return })
	set("cost", func() (e error) { cfg.Utility.C, e = f.GetFloat64("cost"); return })
	set("population", func() (e error) { cfg.Population.Size, e = f.GetInt("population"); return })
	set("topology", func() (e error) { cfg.Population.Topology, e = f.GetString("topology"); return })
	set("infections", func() (e error) { cfg.Population.InitialInfections, e = f.GetInt("infections"); return })
	set("tau", func() (e error) { cfg.Disease.Tau, e = f.GetInt("tau"); return })
	set("gamma", func() (e error) { cfg.Disease.Gamma, e = f.GetFloat64("gamma"); return })
	set("severity", func() (e error) { cfg.Disease.Severity, e = f.GetFloat64("severity"); return })
	set("max-rounds", func() (e error) { cfg.Simulation.MaxRounds, e = f.GetInt("max-rounds"); return })
	set("seed", func() (e error) { cfg.Simulation.Seed, e = f.GetUint64("seed"); return })
	set("workers", func() (e error) { cfg.Simulation.Workers, e = f.GetInt("workers"); return })
	set("policy", func() (e error) { cfg.Simulation.IndirectPolicy, e = f.GetString("policy"); return })
	set("delay", func() (e error) { cfg.Simulation.AgentDelay, e = f.GetDuration("delay"); return })
	set("store", func() (e error) { cfg.Store.Backend, e = f.GetString("store"); return })
	set("log-level", func() (e error) { cfg.Logging.Level, e = f.GetString("log-level"); return })

	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// writeExport renders the final network to outPath, or to stdout when
// outPath is empty.
func writeExport(cmd *cobra.Command, sess *session.Session, format export.Format, outPath string) error {
	if outPath == "" {
		return export.Write(cmd.OutOrStdout(), sess.Network(), format)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0700); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := export.Write(f, sess.Network(), format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(w io.Writer, s simulation.Summary) {
	status := "reached the round cap"
	switch {
	case s.Interrupted:
		status = "was interrupted"
	case s.FinishedByStability:
		status = "converged"
	}

	fmt.Fprintf(w, "Run %s %s after %d rounds.\n\n", s.RunID, status, s.Rounds)
	fmt.Fprintf(w, "Population (%d agents):\n", s.Agents.N)
	fmt.Fprintf(w, "  susceptible: %d\n", s.Agents.NS)
	fmt.Fprintf(w, "  infected:    %d\n", s.Agents.NI)
	fmt.Fprintf(w, "  recovered:   %d\n", s.Agents.NR)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Network (%s):\n", s.Network.Type)
	fmt.Fprintf(w, "  ties:             %d\n", s.Network.Connections)
	fmt.Fprintf(w, "  density:          %.3f\n", s.Network.Density)
	fmt.Fprintf(w, "  average degree:   %.2f\n", s.Network.AvDegree)
	fmt.Fprintf(w, "  average cluster:  %.3f\n", s.Network.AvClustering)
	fmt.Fprintf(w, "  average path:     %.2f\n", s.Network.AvPathLength)
	fmt.Fprintf(w, "  diameter:         %d\n", s.Network.Diameter)
	fmt.Fprintf(w, "  stable:           %v\n", s.Network.Stable)
}
