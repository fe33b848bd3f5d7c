package dynamo

import (
	"errors"
	"math"
	"testing"
)

func TestExtendedState(t *testing.T) {
	x := State{1, 2}
	s := NewExtendedState(0.5, 3, x)
	x[0] = 99

	if s.T() != 0.5 || s.J() != 3 || s.Len() != 2 {
		t.Fatalf("unexpected state %s", s)
	}
	if s.X()[0] != 1 {
		t.Error("NewExtendedState must copy x")
	}
	if got := s.Vector(); len(got) != 4 || got[1] != 3 || got[3] != 2 {
		t.Errorf("Vector() = %v", got)
	}
	if s.At(0) != 0.5 || s.At(2) != 1 {
		t.Error("At indexes the full vector")
	}

	c := s.Clone()
	Raw(c)[2] = -1
	if s.X()[0] != 1 {
		t.Error("Clone must not share storage")
	}
}

func TestExtendedStateJRounds(t *testing.T) {
	s := Wrap([]float64{0, 2.9999999999, 0})
	if s.J() != 3 {
		t.Errorf("J() = %d, want 3", s.J())
	}
}

func TestExtendedFromVector(t *testing.T) {
	if _, err := ExtendedFromVector(nil, 2); !errors.Is(err, ErrNullReference) {
		t.Errorf("expected ErrNullReference, got %v", err)
	}
	if _, err := ExtendedFromVector([]float64{0, 0, 1}, 2); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}

	v := []float64{1, 0, 4, 5}
	s, err := ExtendedFromVector(v, 2)
	if err != nil {
		t.Fatal(err)
	}
	v[2] = 0
	if s.X()[0] != 4 {
		t.Error("ExtendedFromVector must copy v")
	}
}

func TestExtendedStateIsValid(t *testing.T) {
	if !NewExtendedState(0, 0, State{1}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if NewExtendedState(0, 0, State{math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	if NewExtendedState(math.Inf(1), 0, State{0}).IsValid() {
		t.Error("infinite time reported valid")
	}
	if !(ExtendedState{}).IsZero() {
		t.Error("zero value must report IsZero")
	}
}

func TestParamsScalar(t *testing.T) {
	p := Params{{9.81}, {0.5, 0.25}}
	tests := []struct {
		group, index int
		want         float64
	}{
		{0, 0, 9.81},
		{1, 1, 0.25},
		{1, 2, -1},
		{2, 0, -1},
		{-1, 0, -1},
	}
	for _, tt := range tests {
		if got := p.Scalar(tt.group, tt.index, -1); got != tt.want {
			t.Errorf("Scalar(%d, %d) = %v, want %v", tt.group, tt.index, got, tt.want)
		}
	}

	c := p.Clone()
	c[0][0] = 0
	if p[0][0] != 9.81 {
		t.Error("Clone must deep copy groups")
	}
}

func TestStatusRoundTrip(t *testing.T) {
	all := []Status{
		StatusSuccess, StatusAllocationFailure, StatusNullReference,
		StatusInvalidDimension, StatusTimeLimit, StatusJumpLimit,
		StatusInvalidJumpCondition, StatusGeneric,
	}
	for _, s := range all {
		if got := StatusOf(s.Err()); got != s {
			t.Errorf("StatusOf(%s.Err()) = %s", s, got)
		}
		parsed, err := ParseStatus(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseStatus(%q) = %s, %v", s.String(), parsed, err)
		}
	}
	if _, err := ParseStatus("bogus"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStatusIsHorizon(t *testing.T) {
	if !StatusTimeLimit.IsHorizon() || !StatusJumpLimit.IsHorizon() {
		t.Error("limits must be horizons")
	}
	if StatusGeneric.IsHorizon() || StatusSuccess.IsHorizon() {
		t.Error("only limits are horizons")
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	err := error(&StepError{T: 1.5, J: 2, Status: StatusJumpLimit, Wrapped: ErrJumpLimit})
	if !errors.Is(err, ErrJumpLimit) {
		t.Error("StepError must unwrap to its sentinel")
	}
	if StatusOf(err) != StatusJumpLimit {
		t.Errorf("StatusOf = %s", StatusOf(err))
	}
	var se *StepError
	if !errors.As(err, &se) || se.J != 2 {
		t.Error("errors.As failed")
	}
	if want := "t=1.5 j=2: dynamo: jump horizon reached"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestContractValidate(t *testing.T) {
	valid := Contract{OutputSize: 1, StateSize: 2, StepSize: 0.1, TimeHorizon: 1, JumpHorizon: 1, Model: &Funcs{}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid contract rejected: %v", err)
	}
	if valid.ExtendedSize() != 4 {
		t.Errorf("ExtendedSize() = %d", valid.ExtendedSize())
	}

	tests := []struct {
		name   string
		mutate func(*Contract)
		want   error
	}{
		{"nil model", func(c *Contract) { c.Model = nil }, ErrNullReference},
		{"zero state", func(c *Contract) { c.StateSize = 0 }, ErrInvalidContract},
		{"zero output", func(c *Contract) { c.OutputSize = 0 }, ErrInvalidContract},
		{"negative step", func(c *Contract) { c.StepSize = -1 }, ErrInvalidContract},
		{"NaN step", func(c *Contract) { c.StepSize = math.NaN() }, ErrInvalidContract},
		{"zero time horizon", func(c *Contract) { c.TimeHorizon = 0 }, ErrInvalidContract},
		{"zero jump horizon", func(c *Contract) { c.JumpHorizon = 0 }, ErrInvalidContract},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFlowSetOf(t *testing.T) {
	f := &Funcs{}
	if _, ok := FlowSetOf(f); ok {
		t.Error("Funcs without FlowSet must not declare a flow set")
	}
	f.FlowSet = func(t float64, j int, x State, u Control, p Params) bool { return true }
	fs, ok := FlowSetOf(f)
	if !ok || !fs.InFlowSet(0, 0, nil, nil, nil) {
		t.Error("expected declared flow set")
	}
}

func TestFuncsComplete(t *testing.T) {
	noop := func([]float64, float64, int, State, Control, Params) {}
	f := &Funcs{FlowMap: noop, JumpMap: noop, OutputMap: noop}
	if f.Complete() {
		t.Error("missing JumpSet must make Funcs incomplete")
	}
	f.JumpSet = func(float64, int, State, Control, Params) bool { return false }
	if !f.Complete() {
		t.Error("expected complete Funcs")
	}
}

func TestStatePool(t *testing.T) {
	p := NewStatePool()
	a := p.Get(3)
	if len(a) != 3 {
		t.Fatalf("len = %d", len(a))
	}
	a[0], a[1], a[2] = 1, 2, 3
	p.Put(a)

	b := p.Get(2)
	for i, v := range b {
		if v != 0 {
			t.Errorf("b[%d] = %v, want zeroed", i, v)
		}
	}

	c := p.GetAndCopy(State{4, 5})
	if c[0] != 4 || c[1] != 5 {
		t.Errorf("GetAndCopy = %v", c)
	}
}
