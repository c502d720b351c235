package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/stats"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [agent-id]",
		Short: "Show statistics of the latest run's final network",
		Long: `Display statistics of the final network of the most recent run.

Without an argument, prints population and network statistics and the
most central agents by PageRank. With an agent id, prints that agent's
degrees, closeness, clustering, local contact counts and utility.

Examples:
  coevolve stats            # Network overview
  coevolve stats --top 10   # Show the 10 most central agents
  coevolve stats 7          # Statistics of agent 7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			topN, _ := cmd.Flags().GetInt("top")

			net, snap, err := loadLastNetwork(root)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid agent id %q", args[0])
				}

				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				policy, err := stats.ParseIndirectPolicy(cfg.Simulation.IndirectPolicy)
				if err != nil {
					return err
				}

				as, ok, err := stats.ComputeAgentStats(net, id, policy)
				if !ok {
					return fmt.Errorf("agent %d not found", id)
				}
				if err != nil {
					return fmt.Errorf("agent %d: %w", id, err)
				}

				if jsonOut {
					return json.NewEncoder(out).Encode(as)
				}
				fmt.Fprintf(out, "Agent P%d (%s, run %s round %d)\n", as.ID, as.Group, snap.RunID, snap.Round)
				fmt.Fprintf(out, "  degree:      %d (second order %d)\n", as.Degree1, as.Degree2)
				fmt.Fprintf(out, "  closeness:   %.3f\n", as.Closeness)
				fmt.Fprintf(out, "  clustering:  %.3f\n", as.Clustering)
				fmt.Fprintf(out, "  satisfied:   %v\n", as.Satisfied)
				fmt.Fprintf(out, "  ties S/I/R:  %d/%d/%d\n", as.Local.NS, as.Local.NI, as.Local.NR)
				fmt.Fprintf(out, "  indirect:    %d/%d/%d\n", as.Local.MS, as.Local.MI, as.Local.MR)
				fmt.Fprintf(out, "  utility:     %.3f (direct %.3f, indirect %.3f, costs %.3f, disease %.3f)\n",
					as.Overall, as.Utility.BenefitDirect, as.Utility.BenefitIndirect,
					as.Utility.CostsDirect, as.Utility.DiseaseEffect)
				return nil
			}

			agents := stats.ComputeGlobalAgentStats(net)
			netStats := stats.ComputeGlobalNetworkStats(net)
			central := topPageRank(stats.PageRank(net, stats.DefaultPageRankConfig()), topN)

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"run_id":  snap.RunID,
					"round":   snap.Round,
					"agents":  agents,
					"network": netStats,
					"central": central,
				})
			}

			fmt.Fprintf(out, "Run %s, round %d\n\n", snap.RunID, snap.Round)
			fmt.Fprintf(out, "Agents: %d (S %d, I %d, R %d)\n", agents.N, agents.NS, agents.NI, agents.NR)
			fmt.Fprintf(out, "Risk r_sigma averse/neutral/seeking: %d/%d/%d (avg %.2f)\n",
				agents.RSigmaAverse, agents.RSigmaNeutral, agents.RSigmaSeeking, agents.AvRSigma)
			fmt.Fprintf(out, "Risk r_pi averse/neutral/seeking:    %d/%d/%d (avg %.2f)\n",
				agents.RPiAverse, agents.RPiNeutral, agents.RPiSeeking, agents.AvRPi)
			fmt.Fprintf(out, "\nNetwork: %s, %d ties, density %.3f, diameter %d\n",
				netStats.Type, netStats.Connections, netStats.Density, netStats.Diameter)
			fmt.Fprintf(out, "Average degree %.2f (second order %.2f), closeness %.3f, clustering %.3f, path length %.2f\n",
				netStats.AvDegree, netStats.AvDegree2, netStats.AvCloseness, netStats.AvClustering, netStats.AvPathLength)

			if len(central) > 0 {
				fmt.Fprintln(out, "\nMost central agents (PageRank):")
				for _, c := range central {
					fmt.Fprintf(out, "  P%-4d %.3f\n", c.ID, c.Score)
				}
			}
			return nil
		},
	}

	cmd.Flags().Int("top", 5, "Number of central agents to show")

	return cmd
}

// centrality is one agent's PageRank score.
type centrality struct {
	ID    int     `json:"id"`
	Score float64 `json:"pagerank"`
}

// topPageRank returns the n highest scores, ties broken by ascending id.
func topPageRank(scores map[int]float64, n int) []centrality {
	out := make([]centrality, 0, len(scores))
	for id, s := range scores {
		out = append(out, centrality{ID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
