// Package constants provides named default values used throughout the coevolve codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Utility function defaults. These follow the CIDMo calibration used when no
// explicit configuration is supplied.
const (
	// DefaultAlpha is the benefit of a single direct tie.
	DefaultAlpha = 10.0

	// DefaultBeta is the benefit of a single indirect (distance-2) contact.
	DefaultBeta = 8.0

	// DefaultCost is the maintenance cost of a single direct tie (c).
	DefaultCost = 9.0

	// DefaultKappa discounts the direct benefit of an infected tie.
	DefaultKappa = 1.0

	// DefaultLamda discounts the indirect benefit of an infected contact.
	DefaultLamda = 1.0
)

// Disease defaults.
const (
	// DefaultDiseaseType labels the disease when the configuration does not name one.
	DefaultDiseaseType = "SIR"

	// DefaultTau is the number of rounds an infection lasts.
	DefaultTau = 10

	// DefaultSeverity is the utility penalty magnitude of being infected (sigma).
	DefaultSeverity = 50.0

	// DefaultGamma is the per-contact, per-round transmission probability.
	DefaultGamma = 0.1

	// DefaultMu multiplies the cost of ties to infected partners.
	DefaultMu = 1.5
)

// Risk perception defaults. A value of 1 is risk neutral, below 1 risk averse,
// above 1 risk seeking.
const (
	DefaultRSigma = 1.0
	DefaultRPi    = 1.0
)

// Simulation defaults.
const (
	// DefaultPopulation is the number of agents created for a fresh run.
	DefaultPopulation = 50

	// DefaultInitialInfections is the number of agents infected before round one.
	DefaultInitialInfections = 1

	// DefaultMaxRounds caps the number of rounds of a single run.
	DefaultMaxRounds = 1000

	// DefaultSafetyMargin is the number of consecutive stable rounds required
	// before a run is considered converged.
	DefaultSafetyMargin = 20

	// DefaultSeed seeds the simulation RNG when none is configured.
	DefaultSeed = 42

	// DefaultWorkers evaluates decisions on the calling goroutine only.
	DefaultWorkers = 1
)

// Export naming.
const (
	// NodePrefix is prepended to agent ids in exported networks ("P1", "P2", ...).
	NodePrefix = "P"

	// ConnectedMarker and DisconnectedMarker fill adjacency matrix cells.
	ConnectedMarker    = "1"
	DisconnectedMarker = "0"
)

// DataDirName is the per-project directory holding the run database and decision traces.
const DataDirName = ".coevolve"
