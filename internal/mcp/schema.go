package mcp

import (
	"time"

	"github.com/nvandessel/coevolve/internal/simulation"
	"github.com/nvandessel/coevolve/internal/store"
)

// SimulateInput defines the input for the coevolve_simulate tool. Zero
// values keep the configured defaults.
type SimulateInput struct {
	Utility           string  `json:"utility,omitempty" jsonschema:"Utility function: cumulative, truncated-connections, irtc or cidmo"`
	Alpha             float64 `json:"alpha,omitempty" jsonschema:"Benefit of one direct tie"`
	Beta              float64 `json:"beta,omitempty" jsonschema:"Benefit of one indirect contact"`
	Cost              float64 `json:"cost,omitempty" jsonschema:"Maintenance cost of one direct tie"`
	Population        int     `json:"population,omitempty" jsonschema:"Number of agents (max 500)"`
	Topology          string  `json:"topology,omitempty" jsonschema:"Initial network: empty, full, ring or star"`
	InitialInfections int     `json:"initial_infections,omitempty" jsonschema:"Agents infected before the first round"`
	Tau               int     `json:"tau,omitempty" jsonschema:"Rounds an infection lasts"`
	Gamma             float64 `json:"gamma,omitempty" jsonschema:"Per contact transmission probability per round"`
	Severity          float64 `json:"severity,omitempty" jsonschema:"Utility penalty of being infected"`
	MaxRounds         int     `json:"max_rounds,omitempty" jsonschema:"Round cap (max 10000)"`
	Seed              uint64  `json:"seed,omitempty" jsonschema:"Random seed for a reproducible run"`
	IndirectPolicy    string  `json:"indirect_policy,omitempty" jsonschema:"Indirect contact counting: per-traversal or distinct"`
	Format            string  `json:"format,omitempty" jsonschema:"Also return the final network as matrix, edges, dot or json"`
}

// SimulateOutput defines the output for the coevolve_simulate tool.
type SimulateOutput struct {
	RunID   string             `json:"run_id" jsonschema:"ID the run was recorded under"`
	Summary simulation.Summary `json:"summary" jsonschema:"Final population and network statistics"`
	Format  string             `json:"format,omitempty" jsonschema:"Format of the network field"`
	Network string             `json:"network,omitempty" jsonschema:"Final network in the requested format"`
	Message string             `json:"message" jsonschema:"Human-readable result message"`
}

// RunsInput defines the input for the coevolve_runs tool.
type RunsInput struct {
	ID    string `json:"id,omitempty" jsonschema:"Show one run with its rounds instead of listing"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of runs to list (default 20)"`
}

// RunsOutput defines the output for the coevolve_runs tool.
type RunsOutput struct {
	Runs   []RunListItem `json:"runs" jsonschema:"Recorded runs, most recent first"`
	Rounds []store.Round `json:"rounds,omitempty" jsonschema:"Per round results when a single run is requested"`
	Count  int           `json:"count" jsonschema:"Number of runs returned"`
}

// RunListItem provides a list view of a run.
type RunListItem struct {
	ID                  string     `json:"id"`
	NetworkID           string     `json:"network_id"`
	StartedAt           time.Time  `json:"started_at"`
	FinishedAt          *time.Time `json:"finished_at,omitempty"`
	Rounds              int        `json:"rounds"`
	FinishedByStability bool       `json:"finished_by_stability"`
	Interrupted         bool       `json:"interrupted"`
	Infected            int        `json:"infected"`
	Recovered           int        `json:"recovered"`
	Connections         int        `json:"connections"`
}

// ExportInput defines the input for the coevolve_export tool.
type ExportInput struct {
	Format     string `json:"format,omitempty" jsonschema:"Export format: matrix, edges, dot or json (default edges)"`
	OutputPath string `json:"output_path,omitempty" jsonschema:"Write to this file instead of returning the content. Relative names go to .coevolve/exports"`
}

// ExportOutput defines the output for the coevolve_export tool.
type ExportOutput struct {
	RunID     string `json:"run_id" jsonschema:"Run that produced the exported network"`
	Format    string `json:"format"`
	Content   string `json:"content,omitempty" jsonschema:"Exported network when no output path was given"`
	Path      string `json:"path,omitempty" jsonschema:"File written"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}
