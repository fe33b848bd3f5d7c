package jumplogic

import (
	"fmt"
	"strings"
)

// Resolver decides whether a step jumps.
type Resolver interface {
	Resolve(jump, flow bool) bool
	// NeedsFlowSet reports whether Resolve reads its flow argument.
	NeedsFlowSet() bool
}

type Policy int

const (
	JumpPrecedence Policy = iota + 1
	FlowPrecedence
	Randomized
	FlowOnly
)

var policyNames = map[Policy]string{
	JumpPrecedence: "jump",
	FlowPrecedence: "flow",
	Randomized:     "random",
	FlowOnly:       "flow-only",
}

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy accepts the names printed by String as well as the numeric
// forms "1" through "4".
func ParsePolicy(s string) (Policy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "", "1", "jump", "jump-precedence":
		return JumpPrecedence, nil
	case "2", "flow", "flow-precedence":
		return FlowPrecedence, nil
	case "3", "random", "randomized":
		return Randomized, nil
	case "4", "flow-only", "never":
		return FlowOnly, nil
	}
	return 0, fmt.Errorf("unknown jump policy: %s", s)
}

func Policies() []Policy {
	return []Policy{JumpPrecedence, FlowPrecedence, Randomized, FlowOnly}
}

func (p Policy) Resolve(jump, flow bool) bool {
	switch p {
	case FlowPrecedence:
		return jump && !flow
	case Randomized:
		return tieBreak(defaultCoin, jump, flow)
	case FlowOnly:
		return false
	default:
		return jump
	}
}

func (p Policy) NeedsFlowSet() bool {
	return p == FlowPrecedence || p == Randomized
}

// TieBreak is the randomized policy drawing from its own coin.
type TieBreak struct {
	Coin *Coin
}

func NewTieBreak(c *Coin) *TieBreak {
	return &TieBreak{Coin: c}
}

func (t *TieBreak) Resolve(jump, flow bool) bool {
	return tieBreak(t.Coin, jump, flow)
}

func (t *TieBreak) NeedsFlowSet() bool { return true }

func tieBreak(c *Coin, jump, flow bool) bool {
	if !jump {
		return false
	}
	if !flow {
		return true
	}
	return c.Flip()
}

// New returns the resolver for p. For Randomized, a non-nil coin replaces
// the process-wide one.
func New(p Policy, coin *Coin) (Resolver, error) {
	if _, ok := policyNames[p]; !ok {
		return nil, fmt.Errorf("unknown jump policy: %d", int(p))
	}
	if p == Randomized && coin != nil {
		return NewTieBreak(coin), nil
	}
	return p, nil
}
