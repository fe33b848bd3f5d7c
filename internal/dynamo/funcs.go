package dynamo

// Funcs adapts plain functions to [Model]. FlowSet may be nil, in which case
// the model declares no flow set.
type Funcs struct {
	FlowMap   func(dx []float64, t float64, j int, x State, u Control, p Params)
	JumpMap   func(xp []float64, t float64, j int, x State, u Control, p Params)
	OutputMap func(y []float64, t float64, j int, x State, u Control, p Params)
	JumpSet   func(t float64, j int, x State, u Control, p Params) bool
	FlowSet   func(t float64, j int, x State, u Control, p Params) bool
}

func (f *Funcs) Flow(dx []float64, t float64, j int, x State, u Control, p Params) {
	f.FlowMap(dx, t, j, x, u, p)
}

func (f *Funcs) Jump(xp []float64, t float64, j int, x State, u Control, p Params) {
	f.JumpMap(xp, t, j, x, u, p)
}

func (f *Funcs) Output(y []float64, t float64, j int, x State, u Control, p Params) {
	f.OutputMap(y, t, j, x, u, p)
}

func (f *Funcs) InJumpSet(t float64, j int, x State, u Control, p Params) bool {
	return f.JumpSet(t, j, x, u, p)
}

func (f *Funcs) InFlowSet(t float64, j int, x State, u Control, p Params) bool {
	return f.FlowSet(t, j, x, u, p)
}

func (f *Funcs) hasFlowSet() bool { return f.FlowSet != nil }

// Complete reports whether the four mandatory callbacks are set.
func (f *Funcs) Complete() bool {
	return f.FlowMap != nil && f.JumpMap != nil && f.OutputMap != nil && f.JumpSet != nil
}
