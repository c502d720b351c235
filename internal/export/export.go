// Package export writes the tie structure of a network in file formats
// consumed by external analysis tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/coevolve/internal/constants"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/stats"
	"github.com/nvandessel/coevolve/internal/visualization"
)

// Format names an export format.
type Format string

const (
	FormatMatrix Format = "matrix"
	FormatEdges  Format = "edges"
	FormatDOT    Format = "dot"
	FormatJSON   Format = "json"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatMatrix, FormatEdges, FormatDOT, FormatJSON}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (valid: matrix, edges, dot, json)", s)
}

// Extension returns the conventional file extension for the format.
func (f Format) Extension() string {
	switch f {
	case FormatDOT:
		return ".dot"
	case FormatJSON:
		return ".json"
	default:
		return ".csv"
	}
}

// Write renders net to w in the given format.
func Write(w io.Writer, net *network.Network, f Format) error {
	switch f {
	case FormatMatrix:
		return WriteAdjacencyMatrix(w, net)
	case FormatEdges:
		return WriteEdgeList(w, net)
	case FormatDOT:
		_, err := io.WriteString(w, visualization.RenderDOT(net))
		return err
	case FormatJSON:
		enrichment := &visualization.EnrichmentData{
			PageRank: stats.PageRank(net, stats.DefaultPageRankConfig()),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(visualization.RenderJSON(net, enrichment))
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteAdjacencyMatrix writes the network as a CSV adjacency matrix. The
// header row is ",P1,P2,..." and each following row starts with the agent
// name followed by 1 for a tie and 0 otherwise.
func WriteAdjacencyMatrix(w io.Writer, net *network.Network) error {
	ids := net.IDs()
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(ids)+1)
	header = append(header, "")
	for _, id := range ids {
		header = append(header, visualization.NodeName(id))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing matrix header: %w", err)
	}

	for _, a := range ids {
		row := make([]string, 0, len(ids)+1)
		row = append(row, visualization.NodeName(a))
		for _, b := range ids {
			if net.HasConnection(a, b) {
				row = append(row, constants.ConnectedMarker)
			} else {
				row = append(row, constants.DisconnectedMarker)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing matrix row %d: %w", a, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEdgeList writes one "Source,Target" row per undirected tie, with the
// lower id as the source.
func WriteEdgeList(w io.Writer, net *network.Network) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Source", "Target"}); err != nil {
		return fmt.Errorf("writing edge list header: %w", err)
	}

	for _, a := range net.IDs() {
		for _, b := range net.Ties(a) {
			if b <= a {
				continue
			}
			if err := cw.Write([]string{visualization.NodeName(a), visualization.NodeName(b)}); err != nil {
				return fmt.Errorf("writing edge %d-%d: %w", a, b, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
