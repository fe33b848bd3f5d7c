// Package hybrid implements the hybrid step engine.
//
// One call to [Engine.Step] advances a model by exactly one unit of the
// external clock. The engine evaluates the jump set (and the flow set when
// the configured policy reads it), lets a [jumplogic.Resolver] choose
// between jumping and flowing, applies the jump map or delegates one
// fixed-size integration step through the [Adapter], evaluates the output
// map on the resulting state and finally checks the horizons.
//
// The engine never loops over several jumps in one call and never retains
// the caller's state, input or parameters. It holds no mutable state between
// calls, so a single Engine may step independent trajectories from several
// goroutines as long as the stepper and resolver allow it (the bundled ones
// do).
//
// Horizon outcomes still carry the computed state and output:
//
//	out, err := eng.Step(s, u, p, tick)
//	switch {
//	case errors.Is(err, dynamo.ErrJumpLimit):
//		// out.Next is the state in which the limit was crossed
//	case err != nil:
//		return err
//	}
package hybrid
