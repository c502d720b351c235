// Package utility computes the payoff an agent derives from its ties.
//
// A Function is a closed set of variants selected by Kind. Every variant is a
// pure computation over LocalStats and the agent's disease-risk parameters;
// nothing is cached, so callers recompute after every topology or disease change.
package utility

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/nvandessel/coevolve/internal/disease"
)

// ErrUnknownGroup is returned when a disease effect is requested for an agent
// whose compartment is not one of S, I or R.
var ErrUnknownGroup = errors.New("unknown disease group")

// Kind selects the utility variant.
type Kind int

const (
	Cumulative Kind = iota
	TruncatedConnections
	IRTC
	CIDMo
)

var kindNames = map[Kind]string{
	Cumulative:           "cumulative",
	TruncatedConnections: "truncated-connections",
	IRTC:                 "irtc",
	CIDMo:                "cidmo",
}

// String returns the configuration name of the variant.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps a configuration name to a Kind (case-insensitive).
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown utility function %q (valid: cumulative, truncated-connections, irtc, cidmo)", s)
}

// LocalStats counts an agent's direct ties and indirect (distance-2) contacts
// per disease group.
type LocalStats struct {
	NS, NI, NR int
	MS, MI, MR int
}

// Direct returns the number of direct ties.
func (s LocalStats) Direct() int { return s.NS + s.NI + s.NR }

// Indirect returns the number of indirect contacts.
func (s LocalStats) Indirect() int { return s.MS + s.MI + s.MR }

// Utility is the decomposed payoff of one agent.
type Utility struct {
	BenefitDirect   float64 `json:"benefit_direct"`
	BenefitIndirect float64 `json:"benefit_indirect"`
	CostsDirect     float64 `json:"costs_direct"`
	DiseaseEffect   float64 `json:"disease_effect"`
}

// Overall returns benefits minus costs minus the disease effect.
func (u Utility) Overall() float64 {
	return u.BenefitDirect + u.BenefitIndirect - u.CostsDirect - u.DiseaseEffect
}

// Input is everything a utility variant may read.
type Input struct {
	Stats  LocalStats
	Group  disease.Group
	Specs  disease.Specs
	RSigma float64
	RPi    float64
}

// Function is a utility variant together with its coefficients.
type Function struct {
	Kind Kind `json:"kind" yaml:"kind"`

	// Alpha weighs direct ties.
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Beta weighs indirect contacts.
	Beta float64 `json:"beta" yaml:"beta"`

	// C is the cost of maintaining one direct tie.
	C float64 `json:"c" yaml:"c"`

	// Kappa discounts infected direct ties (CIDMo only).
	Kappa float64 `json:"kappa" yaml:"kappa"`

	// Lamda discounts infected indirect contacts (CIDMo only).
	Lamda float64 `json:"lamda" yaml:"lamda"`
}

// NewCumulative returns a Cumulative utility function.
func NewCumulative(alpha, beta float64) Function {
	return Function{Kind: Cumulative, Alpha: alpha, Beta: beta}
}

// NewTruncatedConnections returns a TruncatedConnections utility function.
func NewTruncatedConnections(alpha, c float64) Function {
	return Function{Kind: TruncatedConnections, Alpha: alpha, C: c}
}

// NewIRTC returns an IRTC utility function.
func NewIRTC(alpha, beta, c float64) Function {
	return Function{Kind: IRTC, Alpha: alpha, Beta: beta, C: c}
}

// NewCIDMo returns a CIDMo utility function.
func NewCIDMo(alpha, kappa, beta, lamda, c float64) Function {
	return Function{Kind: CIDMo, Alpha: alpha, Kappa: kappa, Beta: beta, Lamda: lamda, C: c}
}

// String describes the function for logs.
func (f Function) String() string {
	switch f.Kind {
	case Cumulative:
		return fmt.Sprintf("cumulative(alpha=%g, beta=%g)", f.Alpha, f.Beta)
	case TruncatedConnections:
		return fmt.Sprintf("truncated-connections(alpha=%g, c=%g)", f.Alpha, f.C)
	case IRTC:
		return fmt.Sprintf("irtc(alpha=%g, beta=%g, c=%g)", f.Alpha, f.Beta, f.C)
	case CIDMo:
		return fmt.Sprintf("cidmo(alpha=%g, kappa=%g, beta=%g, lamda=%g, c=%g)", f.Alpha, f.Kappa, f.Beta, f.Lamda, f.C)
	}
	return f.Kind.String()
}

// Compute evaluates the function for one agent.
func (f Function) Compute(in Input) (Utility, error) {
	effect, err := f.DiseaseEffect(in)
	if err != nil {
		return Utility{}, err
	}
	return Utility{
		BenefitDirect:   f.BenefitDirect(in.Stats),
		BenefitIndirect: f.BenefitIndirect(in.Stats),
		CostsDirect:     f.CostsDirect(in.Stats, in.Specs),
		DiseaseEffect:   effect,
	}, nil
}

// BenefitDirect returns the benefit of direct ties.
func (f Function) BenefitDirect(s LocalStats) float64 {
	switch f.Kind {
	case CIDMo:
		return f.Alpha * (float64(s.NS) + f.Kappa*float64(s.NI) + float64(s.NR))
	default:
		return f.Alpha * float64(s.Direct())
	}
}

// BenefitIndirect returns the benefit of indirect contacts.
func (f Function) BenefitIndirect(s LocalStats) float64 {
	switch f.Kind {
	case TruncatedConnections:
		return f.Alpha * f.Alpha * float64(s.Indirect())
	case CIDMo:
		return f.Beta * (float64(s.MS) + f.Lamda*float64(s.MI) + float64(s.MR))
	default:
		return f.Beta * float64(s.Indirect())
	}
}

// CostsDirect returns the cost of maintaining direct ties.
func (f Function) CostsDirect(s LocalStats, specs disease.Specs) float64 {
	switch f.Kind {
	case Cumulative:
		return 0
	default:
		return f.C*float64(s.NS+s.NR) + f.C*specs.Mu*float64(s.NI)
	}
}

// DiseaseEffect returns the perceived cost of the disease: p^(2-rPi) * severity^rSigma,
// where p is 1 for infected, 0 for recovered and the probability of infection for
// susceptible agents.
func (f Function) DiseaseEffect(in Input) (float64, error) {
	if f.Kind != IRTC && f.Kind != CIDMo {
		return 0, nil
	}

	var p float64
	switch in.Group {
	case disease.Infected:
		p = 1
	case disease.Recovered:
		p = 0
	case disease.Susceptible:
		p = disease.ProbabilityOfInfection(in.Specs.Gamma, in.Stats.NI)
	default:
		return 0, fmt.Errorf("disease effect for group %v: %w", in.Group, ErrUnknownGroup)
	}

	if p == 0 {
		return 0, nil
	}
	return math.Pow(p, 2-in.RPi) * math.Pow(in.Specs.Severity, in.RSigma), nil
}
