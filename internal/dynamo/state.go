package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// ExtendedState is the contiguous vector (t, j, x). Index 0 holds the
// continuous time, index 1 the jump count and the remainder the physical
// state. The length is fixed when the value is built.
type ExtendedState struct {
	v []float64
}

func NewExtendedState(t float64, j int, x State) ExtendedState {
	v := make([]float64, len(x)+2)
	v[0] = t
	v[1] = float64(j)
	copy(v[2:], x)
	return ExtendedState{v: v}
}

// ExtendedFromVector copies v into an ExtendedState after checking that it
// holds exactly stateSize physical entries.
func ExtendedFromVector(v []float64, stateSize int) (ExtendedState, error) {
	if v == nil {
		return ExtendedState{}, ErrNullReference
	}
	if len(v) != stateSize+2 {
		return ExtendedState{}, fmt.Errorf("%w: extended state has %d entries, want %d",
			ErrInvalidDimension, len(v), stateSize+2)
	}
	c := make([]float64, len(v))
	copy(c, v)
	return ExtendedState{v: c}, nil
}

func (e ExtendedState) T() float64 { return e.v[0] }

func (e ExtendedState) J() int { return int(math.Round(e.v[1])) }

// X returns a view of the physical state. Callers must not modify it.
func (e ExtendedState) X() State { return State(e.v[2:]) }

// Len is the physical state size.
func (e ExtendedState) Len() int {
	if len(e.v) < 2 {
		return 0
	}
	return len(e.v) - 2
}

// IsZero reports whether the value was never built.
func (e ExtendedState) IsZero() bool { return e.v == nil }

// Vector returns a copy of the full (t, j, x) vector.
func (e ExtendedState) Vector() []float64 {
	c := make([]float64, len(e.v))
	copy(c, e.v)
	return c
}

// At returns entry i of the full vector: 0 is t, 1 is j, 2.. is x.
func (e ExtendedState) At(i int) float64 { return e.v[i] }

func (e ExtendedState) Clone() ExtendedState {
	return ExtendedState{v: e.Vector()}
}

func (e ExtendedState) IsValid() bool {
	return State(e.v).IsValid()
}

func (e ExtendedState) String() string {
	if e.IsZero() {
		return "<nil>"
	}
	parts := make([]string, len(e.v)-2)
	for i, v := range e.v[2:] {
		parts[i] = fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("t=%.6g j=%d x=[%s]", e.T(), e.J(), strings.Join(parts, " "))
}

// Raw returns the backing vector of s without copying. It exists for the
// step engine's buffer entry point; the slice must be treated as read-only.
func Raw(s ExtendedState) []float64 { return s.v }

// Wrap adopts v as the backing vector of an ExtendedState without copying.
// The caller gives up ownership of v.
func Wrap(v []float64) ExtendedState { return ExtendedState{v: v} }
