// Package visualization renders social networks in graph description formats.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/coevolve/internal/constants"
	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
)

// Format specifies the output format for network rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// groupColors maps disease groups to DOT fill colors.
var groupColors = map[disease.Group]string{
	disease.Susceptible: "steelblue",
	disease.Infected:    "tomato",
	disease.Recovered:   "mediumseagreen",
}

// NodeName returns the exported name of an agent id, e.g. "P3".
func NodeName(id int) string {
	return fmt.Sprintf("%s%d", constants.NodePrefix, id)
}

// RenderDOT produces an undirected Graphviz representation of the network
// with agents colored by disease group.
func RenderDOT(net *network.Network) string {
	var b strings.Builder
	b.WriteString("graph coevolve {\n")
	b.WriteString("  layout=neato;\n")
	b.WriteString("  node [shape=circle, style=filled, fontname=\"Helvetica\"];\n\n")

	agents := net.Agents()
	for _, a := range agents {
		color := groupColors[a.Group()]
		if color == "" {
			color = "lightgray"
		}
		fmt.Fprintf(&b, "  %q [fillcolor=%q, tooltip=\"group=%s degree=%d\"];\n",
			NodeName(a.ID()), color, a.Group(), a.Degree())
	}
	b.WriteString("\n")

	for _, a := range agents {
		for _, t := range a.Ties() {
			if t > a.ID() {
				fmt.Fprintf(&b, "  %q -- %q;\n", NodeName(a.ID()), NodeName(t))
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// EnrichmentData provides optional data to augment the JSON graph.
type EnrichmentData struct {
	// PageRank maps agent ids to their normalized PageRank scores.
	PageRank map[int]float64
}

// RenderJSON produces a JSON-ready graph with nodes and edges arrays. Each
// undirected tie appears once with source < target.
func RenderJSON(net *network.Network, enrichment *EnrichmentData) map[string]any {
	agents := net.Agents()

	nodes := make([]map[string]any, 0, len(agents))
	edges := make([]map[string]any, 0)
	for _, a := range agents {
		entry := map[string]any{
			"id":        a.ID(),
			"name":      NodeName(a.ID()),
			"group":     a.Group().String(),
			"degree":    a.Degree(),
			"satisfied": a.IsSatisfied(),
		}
		if d := a.Disease(); d != nil {
			entry["remaining_rounds"] = d.RemainingRounds()
		}
		if enrichment != nil && enrichment.PageRank != nil {
			if pr, ok := enrichment.PageRank[a.ID()]; ok {
				entry["pagerank"] = pr
			}
		}
		nodes = append(nodes, entry)

		for _, t := range a.Ties() {
			if t > a.ID() {
				edges = append(edges, map[string]any{
					"source": NodeName(a.ID()),
					"target": NodeName(t),
				})
			}
		}
	}

	return map[string]any{
		"network":    net.ID(),
		"type":       string(net.Type()),
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}
