package integrators

import "github.com/san-kum/hybsim/internal/dynamo"

type Euler struct {
	scratch *dynamo.StatePool
}

func NewEuler() *Euler {
	return &Euler{scratch: dynamo.NewStatePool()}
}

func (e *Euler) Step(h float64, n int, f dynamo.Derivative, t float64, in, out []float64, u dynamo.Control, p dynamo.Params) error {
	if err := checkStep(n, f, in, out); err != nil {
		return err
	}
	dx := e.scratch.Get(n)
	defer e.scratch.Put(dx)

	f(dx, t, in[:n], u, p)
	for i := 0; i < n; i++ {
		out[i] = in[i] + h*dx[i]
	}
	return nil
}
