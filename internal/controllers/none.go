package controllers

import "github.com/san-kum/hybsim/internal/dynamo"

// None applies a zero input of fixed width.
type None struct {
	dim int
}

func NewNone(dim int) *None {
	return &None{
		dim: dim,
	}
}

func (n *None) Compute(dynamo.ExtendedState) dynamo.Control {
	return make(dynamo.Control, n.dim)
}
