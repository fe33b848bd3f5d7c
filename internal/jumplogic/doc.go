// Package jumplogic resolves flow/jump eligibility into a single decision.
//
// A [Resolver] is chosen once per simulation and is never consulted for
// anything but the boolean decision, so the step engine does not change
// when the policy does:
//
//   - [JumpPrecedence]: jump iff the state is in the jump set (default)
//   - [FlowPrecedence]: jump iff in the jump set and not in the flow set
//   - [Randomized]: like FlowPrecedence, but a state in both sets jumps on
//     a coin flip
//   - [FlowOnly]: never jump
//
// The randomized policy draws from a [Coin]. The package-level coin is
// seeded from the clock on its first flip; [TieBreak] accepts a caller-owned
// coin for reproducible runs.
package jumplogic
