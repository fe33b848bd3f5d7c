package integrators

import "github.com/san-kum/hybsim/internal/dynamo"

// RK4 is the classical fixed-step explicit fourth-order Runge-Kutta method.
// Stage buffers come from a pool, so one RK4 may serve concurrent
// simulations.
type RK4 struct {
	scratch *dynamo.StatePool
}

func NewRK4() *RK4 {
	return &RK4{scratch: dynamo.NewStatePool()}
}

func (r *RK4) Step(h float64, n int, f dynamo.Derivative, t float64, in, out []float64, u dynamo.Control, p dynamo.Params) error {
	if err := checkStep(n, f, in, out); err != nil {
		return err
	}

	k1 := r.scratch.Get(n)
	k2 := r.scratch.Get(n)
	k3 := r.scratch.Get(n)
	k4 := r.scratch.Get(n)
	tmp := r.scratch.Get(n)
	defer func() {
		r.scratch.Put(k1)
		r.scratch.Put(k2)
		r.scratch.Put(k3)
		r.scratch.Put(k4)
		r.scratch.Put(tmp)
	}()

	f(k1, t, in[:n], u, p)

	for i := 0; i < n; i++ {
		tmp[i] = in[i] + h*0.5*k1[i]
	}
	f(k2, t+h*0.5, tmp, u, p)

	for i := 0; i < n; i++ {
		tmp[i] = in[i] + h*0.5*k2[i]
	}
	f(k3, t+h*0.5, tmp, u, p)

	for i := 0; i < n; i++ {
		tmp[i] = in[i] + h*k3[i]
	}
	f(k4, t+h, tmp, u, p)

	h6 := h / 6.0
	for i := 0; i < n; i++ {
		out[i] = in[i] + h6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return nil
}

func checkStep(n int, f dynamo.Derivative, in, out []float64) error {
	if f == nil || in == nil || out == nil {
		return dynamo.ErrNullReference
	}
	if n <= 0 || len(in) < n || len(out) < n {
		return dynamo.ErrInvalidDimension
	}
	return nil
}
