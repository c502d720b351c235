package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/coevolve/internal/export"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/session"
	"github.com/nvandessel/coevolve/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the final network of the latest run",
		Long: `Export the final network of the most recent run.

Formats:
  matrix  CSV adjacency matrix with a ",P1,P2,..." header
  edges   CSV edge list with a "Source,Target" header (default)
  dot     Graphviz graph with agents colored by disease group
  json    Nodes and edges with PageRank scores

Examples:
  coevolve export                          # Edge list to stdout
  coevolve export --format matrix -o m.csv # Adjacency matrix to a file
  coevolve export --format dot | dot -Tsvg > network.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			formatName, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("output")

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			net, _, err := loadLastNetwork(root)
			if err != nil {
				return err
			}

			if outPath == "" {
				return export.Write(cmd.OutOrStdout(), net, format)
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0700); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			f, err := os.OpenFile(outPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := export.Write(f, net, format); err != nil {
				f.Close()
				return fmt.Errorf("failed to write export: %w", err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Network written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().String("format", string(export.FormatEdges), "Export format: matrix, edges, dot, json")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")

	return cmd
}

// loadLastNetwork restores the final network saved by the latest run.
func loadLastNetwork(root string) (*network.Network, session.Snapshot, error) {
	snap, err := session.LoadSnapshot(store.DataDir(root))
	if errors.Is(err, session.ErrNoSnapshot) {
		return nil, snap, fmt.Errorf("no saved network in %s, run 'coevolve run' first", store.DataDir(root))
	}
	if err != nil {
		return nil, snap, err
	}
	net, err := snap.Restore()
	if err != nil {
		return nil, snap, err
	}
	return net, snap, nil
}
