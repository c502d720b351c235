package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded runs",
		Long: `List, show and delete recorded simulation runs.

Examples:
  coevolve runs list          # Most recent runs first
  coevolve runs show <id>     # Summary and per round results
  coevolve runs delete <id>   # Remove a run and its rounds`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
	)

	return cmd
}

// openRunStore opens the run store configured for root.
func openRunStore(root string) (store.RunStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	path := cfg.Store.Path
	if path == "" {
		path = store.DefaultDBPath(root)
	}
	s, err := store.New(cfg.Store.Backend, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return s, nil
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			s, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded. Use 'coevolve run' to start one.")
				return nil
			}
			fmt.Fprintf(out, "%-36s  %-19s  %6s  %-10s  %s\n", "ID", "STARTED", "ROUNDS", "STATUS", "S/I/R")
			for _, r := range runs {
				rounds, status, sir := "-", "running", "-"
				if sum := r.Summary; sum != nil {
					rounds = fmt.Sprintf("%d", sum.Rounds)
					status = runStatus(r)
					sir = fmt.Sprintf("%d/%d/%d", sum.Agents.NS, sum.Agents.NI, sum.Agents.NR)
				}
				fmt.Fprintf(out, "%-36s  %-19s  %6s  %-10s  %s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), rounds, status, sir)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}

func runStatus(r store.Run) string {
	switch {
	case r.Summary == nil:
		return "running"
	case r.Summary.Interrupted:
		return "stopped"
	case r.Summary.FinishedByStability:
		return "converged"
	default:
		return "round cap"
	}
}

func newRunsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a run and its rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.GetRun(cmd.Context(), args[0])
			if errors.Is(err, store.ErrRunNotFound) {
				return fmt.Errorf("run not found: %s", args[0])
			}
			if err != nil {
				return err
			}
			rounds, err := s.Rounds(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("failed to load rounds: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"run":    run,
					"rounds": rounds,
				})
			}

			fmt.Fprintf(out, "Run:      %s\n", run.ID)
			fmt.Fprintf(out, "Network:  %s\n", run.NetworkID)
			fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
			if run.FinishedAt != nil {
				fmt.Fprintf(out, "Finished: %s\n", run.FinishedAt.Local().Format(time.DateTime))
			}
			fmt.Fprintf(out, "Status:   %s\n\n", runStatus(*run))

			if len(rounds) == 0 {
				fmt.Fprintln(out, "No rounds recorded.")
				return nil
			}
			fmt.Fprintf(out, "%5s  %4s  %4s  %4s  %5s  %7s  %6s  %s\n", "ROUND", "S", "I", "R", "TIES", "CHANGES", "STABLE", "EVENTS")
			for _, r := range rounds {
				fmt.Fprintf(out, "%5d  %4d  %4d  %4d  %5d  %7d  %6v  %s\n",
					r.Round, r.Susceptible, r.Infected, r.Recovered, r.Connections,
					r.Changes, r.Stable, strings.Join(r.Events, ","))
			}
			return nil
		},
	}
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a run and its rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")

			s, err := openRunStore(root)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.DeleteRun(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrRunNotFound) {
					return fmt.Errorf("run not found: %s", args[0])
				}
				return fmt.Errorf("failed to delete run: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "deleted",
					"id":     args[0],
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}
