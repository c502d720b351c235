package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nvandessel/coevolve/internal/constants"
	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

func triangleWithTail(t *testing.T) *network.Network {
	t.Helper()
	net := network.NewWithID("export")
	specs := disease.Specs{Type: "SIR", Tau: 3, Severity: 10, Gamma: 0.1, Mu: 1}
	for i := 0; i < 4; i++ {
		net.AddAgent(utility.NewCumulative(1, 0.5), specs, 1, 1)
	}
	net.AddConnection(1, 2)
	net.AddConnection(2, 3)
	net.AddConnection(3, 1)
	net.AddConnection(4, 3)
	return net
}

func TestWriteAdjacencyMatrix(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAdjacencyMatrix(&buf, triangleWithTail(t)); err != nil {
		t.Fatalf("WriteAdjacencyMatrix() error = %v", err)
	}

	want := ",P1,P2,P3,P4\n" +
		"P1,0,1,1,0\n" +
		"P2,1,0,1,0\n" +
		"P3,1,1,0,1\n" +
		"P4,0,0,1,0\n"
	if buf.String() != want {
		t.Errorf("matrix =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteEdgeList(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEdgeList(&buf, triangleWithTail(t)); err != nil {
		t.Fatalf("WriteEdgeList() error = %v", err)
	}

	want := "Source,Target\nP1,P2\nP1,P3\nP2,P3\nP3,P4\n"
	if buf.String() != want {
		t.Errorf("edge list =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestWriteEmptyNetwork(t *testing.T) {
	var matrix, edges bytes.Buffer
	net := network.New()

	if err := WriteAdjacencyMatrix(&matrix, net); err != nil {
		t.Fatal(err)
	}
	if err := WriteEdgeList(&edges, net); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(matrix.String(), constants.NodePrefix) {
		t.Errorf("empty matrix = %q, want no agents", matrix.String())
	}
	if edges.String() != "Source,Target\n" {
		t.Errorf("empty edge list = %q", edges.String())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"matrix", FormatMatrix, false},
		{" Edges ", FormatEdges, false},
		{"DOT", FormatDOT, false},
		{"json", FormatJSON, false},
		{"gexf", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteDispatch(t *testing.T) {
	net := triangleWithTail(t)

	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, net, f); err != nil {
				t.Fatalf("Write(%s) error = %v", f, err)
			}
			out := buf.String()
			switch f {
			case FormatMatrix:
				if !strings.HasPrefix(out, ",P1,") {
					t.Errorf("matrix output = %q", out)
				}
			case FormatEdges:
				if !strings.HasPrefix(out, "Source,Target") {
					t.Errorf("edge output = %q", out)
				}
			case FormatDOT:
				if !strings.HasPrefix(out, "graph coevolve {") {
					t.Errorf("dot output = %q", out)
				}
			case FormatJSON:
				var graph map[string]any
				if err := json.Unmarshal(buf.Bytes(), &graph); err != nil {
					t.Fatalf("json output invalid: %v", err)
				}
				if graph["edge_count"] != float64(4) {
					t.Errorf("edge_count = %v, want 4", graph["edge_count"])
				}
			}
		})
	}

	if err := Write(&bytes.Buffer{}, net, Format("gexf")); err == nil {
		t.Error("expected error for unknown format")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWritePropagatesIOErrors(t *testing.T) {
	net := triangleWithTail(t)
	if err := WriteAdjacencyMatrix(failingWriter{}, net); err == nil {
		t.Error("expected matrix write error")
	}
	if err := WriteEdgeList(failingWriter{}, net); err == nil {
		t.Error("expected edge list write error")
	}
}

func TestExtension(t *testing.T) {
	if FormatMatrix.Extension() != ".csv" || FormatEdges.Extension() != ".csv" {
		t.Error("csv formats should use .csv")
	}
	if FormatDOT.Extension() != ".dot" || FormatJSON.Extension() != ".json" {
		t.Error("unexpected extension for dot/json")
	}
}
