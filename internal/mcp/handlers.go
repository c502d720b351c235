package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/coevolve/internal/config"
	"github.com/nvandessel/coevolve/internal/export"
	"github.com/nvandessel/coevolve/internal/pathutil"
	"github.com/nvandessel/coevolve/internal/ratelimit"
	"github.com/nvandessel/coevolve/internal/session"
	"github.com/nvandessel/coevolve/internal/store"
)

const (
	maxPopulation   = 500
	maxRounds       = 10000
	defaultRunLimit = 20
)

// registerTools registers all coevolve MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coevolve_simulate",
		Description: "Run a network and disease co-evolution simulation and record it. Returns the final population and network statistics.",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coevolve_runs",
		Description: "List recorded simulation runs, or show one run with its per round results",
	}, s.handleRuns)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "coevolve_export",
		Description: "Export the final network of the most recent simulation as an adjacency matrix, edge list, DOT or JSON graph",
	}, s.handleExport)
}

// apply overlays the non-zero fields of args onto cfg.
func (args SimulateInput) apply(cfg *config.CoevolveConfig) {
	if args.Utility != "" {
		cfg.Utility.Kind = args.Utility
	}
	if args.Alpha != 0 {
		cfg.Utility.Alpha = args.Alpha
	}
	if args.Beta != 0 {
		cfg.Utility.Beta = args.Beta
	}
	if args.Cost != 0 {
		cfg.Utility.C = args.Cost
	}
	if args.Population != 0 {
		cfg.Population.Size = args.Population
	}
	if args.Topology != "" {
		cfg.Population.Topology = args.Topology
	}
	if args.InitialInfections != 0 {
		cfg.Population.InitialInfections = args.InitialInfections
	}
	if args.Tau != 0 {
		cfg.Disease.Tau = args.Tau
	}
	if args.Gamma != 0 {
		cfg.Disease.Gamma = args.Gamma
	}
	if args.Severity != 0 {
		cfg.Disease.Severity = args.Severity
	}
	if args.MaxRounds != 0 {
		cfg.Simulation.MaxRounds = args.MaxRounds
	}
	if args.Seed != 0 {
		cfg.Simulation.Seed = args.Seed
	}
	if args.IndirectPolicy != "" {
		cfg.Simulation.IndirectPolicy = args.IndirectPolicy
	}
}

// handleSimulate implements the coevolve_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coevolve_simulate", start, retErr, sanitizeToolParams(map[string]any{
			"utility":    args.Utility,
			"population": args.Population,
			"topology":   args.Topology,
			"max_rounds": args.MaxRounds,
			"seed":       args.Seed,
			"format":     args.Format,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "coevolve_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}

	var format export.Format
	if args.Format != "" {
		f, err := export.ParseFormat(args.Format)
		if err != nil {
			return nil, SimulateOutput{}, err
		}
		format = f
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("load config: %w", err)
	}
	args.apply(cfg)
	if cfg.Population.Size > maxPopulation {
		return nil, SimulateOutput{}, fmt.Errorf("population %d exceeds the tool limit of %d", cfg.Population.Size, maxPopulation)
	}
	if cfg.Simulation.MaxRounds > maxRounds {
		return nil, SimulateOutput{}, fmt.Errorf("max_rounds %d exceeds the tool limit of %d", cfg.Simulation.MaxRounds, maxRounds)
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	sess, err := session.Open(ctx, cfg, session.Options{
		Root:   s.root,
		Logger: s.logger,
		Store:  s.store,
	})
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	defer sess.Close()

	summary, err := sess.Run(ctx)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("run %s: %w", sess.RunID(), err)
	}

	out := SimulateOutput{
		RunID:   sess.RunID(),
		Summary: summary,
	}
	if format != "" {
		var buf bytes.Buffer
		if err := export.Write(&buf, sess.Network(), format); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("render network: %w", err)
		}
		out.Format = string(format)
		out.Network = buf.String()
	}

	reason := "round cap"
	if summary.FinishedByStability {
		reason = "stability"
	}
	out.Message = fmt.Sprintf("Run %s finished after %d rounds by %s: %d susceptible, %d infected, %d recovered, %d ties (%s)",
		summary.RunID, summary.Rounds, reason,
		summary.Agents.NS, summary.Agents.NI, summary.Agents.NR,
		summary.Network.Connections, summary.Network.Type)
	return nil, out, nil
}

// handleRuns implements the coevolve_runs tool.
func (s *Server) handleRuns(ctx context.Context, req *sdk.CallToolRequest, args RunsInput) (_ *sdk.CallToolResult, _ RunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coevolve_runs", start, retErr, sanitizeToolParams(map[string]any{
			"id":    args.ID,
			"limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "coevolve_runs"); err != nil {
		return nil, RunsOutput{}, err
	}

	if args.ID != "" {
		run, err := s.store.GetRun(ctx, args.ID)
		if err != nil {
			return nil, RunsOutput{}, err
		}
		rounds, err := s.store.Rounds(ctx, args.ID)
		if err != nil {
			return nil, RunsOutput{}, fmt.Errorf("get rounds: %w", err)
		}
		return nil, RunsOutput{
			Runs:   []RunListItem{runListItem(*run)},
			Rounds: rounds,
			Count:  1,
		}, nil
	}

	runs, err := s.store.ListRuns(ctx)
	if err != nil {
		return nil, RunsOutput{}, fmt.Errorf("list runs: %w", err)
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}

	items := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		items = append(items, runListItem(r))
	}
	return nil, RunsOutput{Runs: items, Count: len(items)}, nil
}

func runListItem(r store.Run) RunListItem {
	item := RunListItem{
		ID:         r.ID,
		NetworkID:  r.NetworkID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if sum := r.Summary; sum != nil {
		item.Rounds = sum.Rounds
		item.FinishedByStability = sum.FinishedByStability
		item.Interrupted = sum.Interrupted
		item.Infected = sum.Agents.NI
		item.Recovered = sum.Agents.NR
		item.Connections = sum.Network.Connections
	}
	return item
}

// handleExport implements the coevolve_export tool.
func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("coevolve_export", start, retErr, sanitizeToolParams(map[string]any{
			"format":      args.Format,
			"output_path": args.OutputPath,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "coevolve_export"); err != nil {
		return nil, ExportOutput{}, err
	}

	format := export.FormatEdges
	if args.Format != "" {
		f, err := export.ParseFormat(args.Format)
		if err != nil {
			return nil, ExportOutput{}, err
		}
		format = f
	}

	s.runMu.Lock()
	snap, err := session.LoadSnapshot(store.DataDir(s.root))
	s.runMu.Unlock()
	if errors.Is(err, session.ErrNoSnapshot) {
		return nil, ExportOutput{}, fmt.Errorf("no finished simulation to export, run coevolve_simulate first")
	}
	if err != nil {
		return nil, ExportOutput{}, err
	}

	net, err := snap.Restore()
	if err != nil {
		return nil, ExportOutput{}, err
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, net, format); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("render network: %w", err)
	}

	out := ExportOutput{
		RunID:     snap.RunID,
		Format:    string(format),
		NodeCount: net.Size(),
		EdgeCount: net.EdgeCount(),
	}

	if args.OutputPath == "" {
		out.Content = buf.String()
		return nil, out, nil
	}

	path, err := pathutil.ResolveExportPath(s.root, args.OutputPath)
	if err != nil {
		return nil, ExportOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("write export %s: %w", pathutil.RedactPath(path), err)
	}
	out.Path = path
	return nil, out, nil
}
