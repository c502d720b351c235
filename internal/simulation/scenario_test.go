package simulation

import (
	"testing"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

func TestParseTopology(t *testing.T) {
	tests := []struct {
		in      string
		want    network.Type
		wantErr bool
	}{
		{"", network.TypeEmpty, false},
		{"ring", network.TypeRing, false},
		{"FULL", network.TypeFull, false},
		{" star ", network.TypeStar, false},
		{"undefined", "", true},
		{"lattice", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTopology(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTopology(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTopology(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScenario_Build(t *testing.T) {
	tests := []struct {
		name     string
		topology network.Type
	}{
		{"empty", network.TypeEmpty},
		{"full", network.TypeFull},
		{"ring", network.TypeRing},
		{"star", network.TypeStar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scenario{
				Population:        6,
				Function:          utility.NewCumulative(1, 0.5),
				Specs:             testSpecs(),
				RSigma:            1,
				RPi:               1,
				Topology:          tt.topology,
				InitialInfections: 2,
			}
			net, err := s.Build(NewRand(3))
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if net.Size() != 6 {
				t.Errorf("Size() = %d, want 6", net.Size())
			}
			if net.Type() != tt.topology {
				t.Errorf("Type() = %v, want %v", net.Type(), tt.topology)
			}
			if got := net.CountGroup(disease.Infected); got != 2 {
				t.Errorf("infected = %d, want 2", got)
			}
			AssertSymmetric(t, net)
		})
	}
}

func TestScenario_BuildRejectsInvalid(t *testing.T) {
	base := Scenario{Population: 3, Function: utility.NewCumulative(1, 1), Specs: testSpecs()}

	tooMany := base
	tooMany.InitialInfections = 4
	if _, err := tooMany.Build(NewRand(1)); err == nil {
		t.Error("expected error for more infections than agents")
	}

	undefined := base
	undefined.Topology = network.TypeUndefined
	if _, err := undefined.Build(NewRand(1)); err == nil {
		t.Error("expected error for UNDEFINED topology")
	}

	badSpecs := base
	badSpecs.Specs.Tau = 0
	if _, err := badSpecs.Build(NewRand(1)); err == nil {
		t.Error("expected error for invalid disease")
	}
}
