package metrics

import "github.com/san-kum/hybsim/internal/dynamo"

// JumpCount counts the samples produced by a jump.
type JumpCount struct {
	name  string
	jumps int
}

func NewJumpCount() *JumpCount {
	return &JumpCount{name: "jumps"}
}

func (c *JumpCount) Name() string { return c.name }

func (c *JumpCount) Observe(_ dynamo.ExtendedState, _ []float64, jumped bool) {
	if jumped {
		c.jumps++
	}
}

func (c *JumpCount) Value() float64 { return float64(c.jumps) }

func (c *JumpCount) Reset() { c.jumps = 0 }

// FlowFraction is the share of samples produced by a flow step.
type FlowFraction struct {
	name    string
	flows   int
	samples int
}

func NewFlowFraction() *FlowFraction {
	return &FlowFraction{name: "flow_fraction"}
}

func (f *FlowFraction) Name() string { return f.name }

func (f *FlowFraction) Observe(_ dynamo.ExtendedState, _ []float64, jumped bool) {
	f.samples++
	if !jumped {
		f.flows++
	}
}

func (f *FlowFraction) Value() float64 {
	if f.samples == 0 {
		return 0
	}
	return float64(f.flows) / float64(f.samples)
}

func (f *FlowFraction) Reset() {
	f.flows = 0
	f.samples = 0
}

// JumpRate is jumps per unit of continuous time.
type JumpRate struct {
	name   string
	jumps  int
	start  float64
	last   float64
	primed bool
}

func NewJumpRate() *JumpRate {
	return &JumpRate{name: "jump_rate"}
}

func (r *JumpRate) Name() string { return r.name }

func (r *JumpRate) Observe(s dynamo.ExtendedState, _ []float64, jumped bool) {
	if !r.primed {
		r.start = s.T()
		r.primed = true
	}
	r.last = s.T()
	if jumped {
		r.jumps++
	}
}

func (r *JumpRate) Value() float64 {
	span := r.last - r.start
	if span <= 0 {
		return 0
	}
	return float64(r.jumps) / span
}

func (r *JumpRate) Reset() {
	r.jumps = 0
	r.start, r.last = 0, 0
	r.primed = false
}
