package simulation

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/coevolve/internal/logging"
	"github.com/nvandessel/coevolve/internal/network"
	"github.com/nvandessel/coevolve/internal/stats"
)

// epsilon absorbs floating point noise when comparing utilities.
const epsilon = 1e-9

// candidate is a proposed tie change and the proposer's utility delta.
// For disconnects, gain is the marginal utility of the tie (negative when
// the tie hurts).
type candidate struct {
	partner int
	gain    float64
	found   bool
}

// proposal holds both evaluated actions of one agent.
type proposal struct {
	connect    candidate
	disconnect candidate
}

// decisionPhase lets every agent of the round act once, in the round's
// shuffled order, starting at rs.next. It returns false when the phase was
// interrupted; rs.next then points at the first agent still to decide.
func (e *Engine) decisionPhase(ctx context.Context, rs *roundState) (bool, error) {
	start := rs.next

	var props []proposal
	if e.params.Workers > 1 {
		var err error
		props, err = e.evaluateAll(ctx, rs.order[start:])
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			return false, err
		}
	}

	for ; rs.next < len(rs.order); rs.next++ {
		if e.interrupted(ctx) || !e.pace(ctx) {
			return false, nil
		}

		id := rs.order[rs.next]
		var pre *proposal
		if props != nil {
			pre = &props[rs.next-start]
		}
		changed, err := e.decide(&rs.res, id, rs.connectFirst[rs.next], pre)
		if err != nil {
			return false, err
		}
		e.net.SetSatisfied(id, !changed)
	}
	return true, nil
}

// evaluateAll computes every agent's proposal concurrently against the
// network as it stands at the start of the phase.
func (e *Engine) evaluateAll(ctx context.Context, ids []int) ([]proposal, error) {
	props := make([]proposal, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.params.Workers)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a, ok := e.net.Agent(id)
			if !ok {
				return nil
			}
			c, err := bestConnect(e.net, a, e.params.IndirectPolicy)
			if err != nil {
				return err
			}
			d, err := worstTie(e.net, a, e.params.IndirectPolicy)
			if err != nil {
				return err
			}
			props[i] = proposal{connect: c, disconnect: d}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return props, nil
}

// decide runs the agent's two actions in the given order and stops at the
// first one that changes a tie. With a precomputed proposal the chosen
// partners are re-validated against the current network before applying.
func (e *Engine) decide(res *RoundResult, id int, connectFirst bool, pre *proposal) (bool, error) {
	a, ok := e.net.Agent(id)
	if !ok {
		return false, nil
	}

	actions := []Action{ActionConnect, ActionDisconnect}
	if !connectFirst {
		slices.Reverse(actions)
	}

	for _, act := range actions {
		var (
			c   candidate
			err error
		)
		switch {
		case pre != nil && act == ActionConnect:
			c = pre.connect
		case pre != nil:
			c = pre.disconnect
		case act == ActionConnect:
			c, err = bestConnect(e.net, a, e.params.IndirectPolicy)
		default:
			c, err = worstTie(e.net, a, e.params.IndirectPolicy)
		}
		if err != nil {
			return false, fmt.Errorf("round %d: agent %d %s: %w", res.Round, id, act, err)
		}
		if !c.found {
			continue
		}

		var changed bool
		if act == ActionConnect {
			changed, err = e.applyConnect(res, a, c.partner)
		} else {
			changed, err = e.applyDisconnect(res, a, c.partner)
		}
		if err != nil {
			return false, fmt.Errorf("round %d: agent %d %s: %w", res.Round, id, act, err)
		}
		if changed {
			return true, nil
		}
	}
	return false, nil
}

// applyConnect proposes a tie from a to partner. The tie is added iff it
// still raises a's utility and does not lower the partner's.
func (e *Engine) applyConnect(res *RoundResult, a *network.Agent, partner int) (bool, error) {
	id := a.ID()
	p, ok := e.net.Agent(partner)
	if !ok || e.net.HasConnection(id, partner) {
		return false, nil
	}

	gain, err := tieDelta(e.net, a, partner, e.params.IndirectPolicy)
	if err != nil {
		return false, err
	}
	if gain <= epsilon {
		e.trace(res, id, ActionConnect, partner, gain, false, "stale")
		return false, nil
	}

	partnerGain, err := tieDelta(e.net, p, id, e.params.IndirectPolicy)
	if err != nil {
		return false, err
	}
	if partnerGain < -epsilon {
		e.trace(res, id, ActionConnect, partner, gain, false, "declined")
		return false, nil
	}

	e.net.AddConnection(id, partner)
	res.Changes = append(res.Changes, Change{Agent: id, Partner: partner, Action: ActionConnect, Gain: gain})
	e.trace(res, id, ActionConnect, partner, gain, true, "")
	return true, nil
}

// applyDisconnect removes the tie between a and partner iff its marginal
// utility to a is still negative.
func (e *Engine) applyDisconnect(res *RoundResult, a *network.Agent, partner int) (bool, error) {
	id := a.ID()
	if !e.net.HasConnection(id, partner) {
		return false, nil
	}

	marginal, err := tieMarginal(e.net, a, partner, e.params.IndirectPolicy)
	if err != nil {
		return false, err
	}
	if marginal >= -epsilon {
		e.trace(res, id, ActionDisconnect, partner, marginal, false, "stale")
		return false, nil
	}

	e.net.RemoveConnection(id, partner)
	res.Changes = append(res.Changes, Change{Agent: id, Partner: partner, Action: ActionDisconnect, Gain: marginal})
	e.trace(res, id, ActionDisconnect, partner, marginal, true, "")
	return true, nil
}

func (e *Engine) trace(res *RoundResult, id int, act Action, partner int, gain float64, applied bool, reason string) {
	e.decisions.LogDecision(logging.Decision{
		Run:     e.runID,
		Round:   res.Round,
		Agent:   id,
		Action:  string(act),
		Partner: partner,
		Gain:    gain,
		Applied: applied,
		Reason:  reason,
	})
	e.logger.Log(context.Background(), logging.LevelTrace, "decision",
		"round", res.Round, "agent", id, "action", act, "partner", partner,
		"gain", gain, "applied", applied, "reason", reason)
}

// bestConnect finds the non-tie whose connection raises a's utility most.
// Ties in gain go to the lowest id.
func bestConnect(v network.View, a *network.Agent, policy stats.IndirectPolicy) (candidate, error) {
	base, err := overall(v, a, policy)
	if err != nil {
		return candidate{}, err
	}

	id := a.ID()
	ties := v.Ties(id)
	var best candidate
	for _, other := range v.IDs() {
		if other == id {
			continue
		}
		if _, tied := slices.BinarySearch(ties, other); tied {
			continue
		}
		u, err := overall(network.WithTie(v, id, other), a, policy)
		if err != nil {
			return candidate{}, err
		}
		if gain := u - base; gain > epsilon && (!best.found || gain > best.gain) {
			best = candidate{partner: other, gain: gain, found: true}
		}
	}
	return best, nil
}

// worstTie finds the tie with the most negative marginal utility to a.
func worstTie(v network.View, a *network.Agent, policy stats.IndirectPolicy) (candidate, error) {
	base, err := overall(v, a, policy)
	if err != nil {
		return candidate{}, err
	}

	id := a.ID()
	var worst candidate
	for _, other := range v.Ties(id) {
		u, err := overall(network.WithoutTie(v, id, other), a, policy)
		if err != nil {
			return candidate{}, err
		}
		if marginal := base - u; marginal < -epsilon && (!worst.found || marginal < worst.gain) {
			worst = candidate{partner: other, gain: marginal, found: true}
		}
	}
	return worst, nil
}

// tieDelta returns how a's utility changes if a tie to other is added.
func tieDelta(v network.View, a *network.Agent, other int, policy stats.IndirectPolicy) (float64, error) {
	base, err := overall(v, a, policy)
	if err != nil {
		return 0, err
	}
	u, err := overall(network.WithTie(v, a.ID(), other), a, policy)
	if err != nil {
		return 0, err
	}
	return u - base, nil
}

// tieMarginal returns the utility an existing tie to other contributes to a.
func tieMarginal(v network.View, a *network.Agent, other int, policy stats.IndirectPolicy) (float64, error) {
	base, err := overall(v, a, policy)
	if err != nil {
		return 0, err
	}
	u, err := overall(network.WithoutTie(v, a.ID(), other), a, policy)
	if err != nil {
		return 0, err
	}
	return base - u, nil
}

func overall(v network.View, a *network.Agent, policy stats.IndirectPolicy) (float64, error) {
	u, err := stats.AgentUtility(v, a, policy)
	if err != nil {
		return 0, err
	}
	return u.Overall(), nil
}
