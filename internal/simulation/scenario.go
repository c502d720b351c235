package simulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/nvandessel/coevolve/internal/disease"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/utility"
)

// Scenario describes the population a run starts from.
type Scenario struct {
	Population int
	Function   utility.Function
	Specs      disease.Specs
	RSigma     float64
	RPi        float64

	// Topology is the initial tie structure. UNDEFINED is not buildable.
	Topology network.Type

	// Hub is the star centre; 0 selects agent 1.
	Hub int

	InitialInfections int
}

// ParseTopology maps a configuration name such as "ring" to a network type.
// The empty string selects EMPTY.
func ParseTopology(s string) (network.Type, error) {
	switch t := network.Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case "":
		return network.TypeEmpty, nil
	case network.TypeEmpty, network.TypeFull, network.TypeRing, network.TypeStar:
		return t, nil
	}
	return "", fmt.Errorf("unknown topology %q (valid: empty, full, ring, star)", s)
}

// Build creates the network and seeds the initial infections with r.
func (s Scenario) Build(r *rand.Rand) (*network.Network, error) {
	if s.Population < 0 {
		return nil, fmt.Errorf("population must be non-negative, got %d", s.Population)
	}
	if s.InitialInfections < 0 || s.InitialInfections > s.Population {
		return nil, fmt.Errorf("initial infections must be between 0 and %d, got %d", s.Population, s.InitialInfections)
	}
	if err := s.Specs.Validate(); err != nil {
		return nil, fmt.Errorf("disease: %w", err)
	}

	net := network.New()
	for i := 0; i < s.Population; i++ {
		net.AddAgent(s.Function, s.Specs, s.RSigma, s.RPi)
	}

	switch s.Topology {
	case "", network.TypeEmpty:
	case network.TypeFull:
		net.CreateFullNetwork()
	case network.TypeRing:
		net.CreateRing()
	case network.TypeStar:
		hub := s.Hub
		if hub == 0 {
			hub = 1
		}
		if err := net.CreateStar(hub); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot build topology %s", s.Topology)
	}

	for i := 0; i < s.InitialInfections; i++ {
		if _, _, err := net.InfectRandomAgent(r, s.Specs); err != nil {
			return nil, fmt.Errorf("initial infection: %w", err)
		}
	}
	return net, nil
}
