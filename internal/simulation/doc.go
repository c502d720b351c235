// Package simulation runs the round-based co-evolution of a social network
// and an SIR disease.
//
// One round is a disease phase followed by a decision phase. In the disease
// phase every susceptible agent may catch the disease from its infectious
// ties, and every infected agent progresses toward recovery. In the decision
// phase every agent tries to add the tie that improves its utility most or
// drop the tie that hurts it most. A run ends at the round cap, or once every
// agent has been satisfied for a number of consecutive rounds with no
// infection left.
//
// The engine reports what happened through the RoundResult returned from
// Step; there are no listeners.
//
// Usage:
//
//	net, _ := simulation.Scenario{
//	    Population:        50,
//	    Function:          utility.NewIRTC(10, 8, 9),
//	    Specs:             specs,
//	    RSigma:            1,
//	    RPi:               1,
//	    Topology:          network.TypeRing,
//	    InitialInfections: 1,
//	}.Build(simulation.NewRand(42))
//	engine, _ := simulation.New(net, simulation.Params{MaxRounds: 500, SafetyMargin: 20, Seed: 42, Specs: specs})
//	summary, err := engine.Run(ctx)
package simulation
