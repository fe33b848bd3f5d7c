package hybrid_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/hybsim/internal/dynamo"
	"github.com/san-kum/hybsim/internal/hybrid"
	"github.com/san-kum/hybsim/internal/integrators"
	"github.com/san-kum/hybsim/internal/jumplogic"
)

// counter flows at unit rate and jumps by adding 10 whenever x >= limit.
// Its flow set is x <= limit, so x == limit is in both sets.
func counter(limit float64) *dynamo.Funcs {
	return &dynamo.Funcs{
		FlowMap: func(dx []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
			dx[0] = 1
		},
		JumpMap: func(xp []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
			xp[0] = x[0] + 10
		},
		OutputMap: func(y []float64, t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) {
			y[0] = t
			y[1] = float64(j)
			y[2] = x[0]
		},
		JumpSet: func(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
			return x[0] >= limit
		},
		FlowSet: func(t float64, j int, x dynamo.State, u dynamo.Control, p dynamo.Params) bool {
			return x[0] <= limit
		},
	}
}

func contractFor(m dynamo.Model) dynamo.Contract {
	return dynamo.Contract{
		OutputSize:  3,
		StateSize:   1,
		StepSize:    0.5,
		TimeHorizon: 100,
		JumpHorizon: 100,
		Model:       m,
	}
}

// hold is an identity stepper: a step of length zero.
type hold struct {
	ticks []float64
}

func (h *hold) Step(_ float64, n int, f dynamo.Derivative, t float64, in, out []float64, u dynamo.Control, p dynamo.Params) error {
	h.ticks = append(h.ticks, t)
	copy(out[:n], in[:n])
	return nil
}

type failing struct{ err error }

func (f failing) Step(float64, int, dynamo.Derivative, float64, []float64, []float64, dynamo.Control, dynamo.Params) error {
	return f.err
}

var _ = Describe("Engine", func() {
	var (
		model *dynamo.Funcs
		c     dynamo.Contract
	)

	BeforeEach(func() {
		model = counter(1.0)
		c = contractFor(model)
	})

	Describe("construction", func() {
		It("rejects an invalid contract", func() {
			c.StepSize = 0
			_, err := hybrid.New(c, nil, nil)
			Expect(err).To(MatchError(dynamo.ErrInvalidContract))
		})

		It("rejects a missing model", func() {
			c.Model = nil
			_, err := hybrid.New(c, nil, nil)
			Expect(err).To(MatchError(dynamo.ErrNullReference))
		})

		It("rejects a closure set with a missing callback", func() {
			model.JumpMap = nil
			_, err := hybrid.New(c, nil, nil)
			Expect(err).To(MatchError(dynamo.ErrNullReference))
		})

		It("requires a flow set only when the policy reads it", func() {
			model.FlowSet = nil
			_, err := hybrid.New(c, jumplogic.JumpPrecedence, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = hybrid.New(c, jumplogic.FlowOnly, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = hybrid.New(c, jumplogic.FlowPrecedence, nil)
			Expect(err).To(MatchError(dynamo.ErrNullReference))
			_, err = hybrid.New(c, jumplogic.Randomized, nil)
			Expect(err).To(MatchError(dynamo.ErrNullReference))
		})

		It("defaults to jump precedence", func() {
			eng, err := hybrid.New(c, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Policy()).To(Equal(jumplogic.JumpPrecedence))
		})
	})

	Describe("a single step", func() {
		It("flows outside the jump set", func() {
			eng, _ := hybrid.New(c, nil, integrators.NewRK4())
			out, err := eng.Step(dynamo.NewExtendedState(2, 3, dynamo.State{0}), nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Jumped).To(BeFalse())
			Expect(out.Next.T()).To(Equal(2.5))
			Expect(out.Next.J()).To(Equal(3))
			Expect(out.Next.X()[0]).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("jumps by exactly one and holds t", func() {
			eng, _ := hybrid.New(c, nil, nil)
			s := dynamo.NewExtendedState(4.25, 7, dynamo.State{1.5})
			out, err := eng.Step(s, nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Jumped).To(BeTrue())
			Expect(out.Next.J()).To(Equal(8))
			Expect(out.Next.T()).To(Equal(4.25))
			Expect(out.Next.X()[0]).To(Equal(11.5))
		})

		It("evaluates the output map on the resulting state", func() {
			eng, _ := hybrid.New(c, nil, nil)
			for _, s := range []dynamo.ExtendedState{
				dynamo.NewExtendedState(0, 0, dynamo.State{0}),
				dynamo.NewExtendedState(1, 2, dynamo.State{3}),
			} {
				out, err := eng.Step(s, nil, nil, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Output).To(Equal([]float64{out.Next.T(), float64(out.Next.J()), out.Next.X()[0]}))
			}
		})

		It("does not modify the input state", func() {
			eng, _ := hybrid.New(c, nil, nil)
			s := dynamo.NewExtendedState(0, 0, dynamo.State{2})
			before := s.Vector()
			_, err := eng.Step(s, nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Vector()).To(Equal(before))
		})

		It("passes the tick through to the integrator", func() {
			h := &hold{}
			eng, _ := hybrid.New(c, nil, h)
			_, err := eng.Step(dynamo.NewExtendedState(0, 0, dynamo.State{0}), nil, nil, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(h.ticks).To(Equal([]float64{42}))
		})
	})

	Describe("policies", func() {
		both := dynamo.NewExtendedState(0, 0, dynamo.State{1.0})

		DescribeTable("a state in both sets",
			func(policy jumplogic.Resolver, wantJump bool) {
				eng, err := hybrid.New(c, policy, nil)
				Expect(err).NotTo(HaveOccurred())
				out, err := eng.Step(both, nil, nil, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Jumped).To(Equal(wantJump))
			},
			Entry("jump precedence jumps", jumplogic.JumpPrecedence, true),
			Entry("flow precedence flows", jumplogic.FlowPrecedence, false),
			Entry("flow only flows", jumplogic.FlowOnly, false),
			Entry("tie break with a sure coin jumps", jumplogic.NewTieBreak(jumplogic.NewSeededCoin(1, 1)), true),
			Entry("tie break with a dead coin flows", jumplogic.NewTieBreak(jumplogic.NewSeededCoin(1, 0)), false),
		)

		It("never changes j under flow only", func() {
			eng, _ := hybrid.New(c, jumplogic.FlowOnly, nil)
			s := dynamo.NewExtendedState(0, 5, dynamo.State{0})
			for i := 0; i < 150; i++ {
				out, err := eng.Step(s, nil, nil, float64(i))
				if err != nil {
					Expect(errors.Is(err, dynamo.ErrTimeLimit)).To(BeTrue())
				}
				Expect(out.Next.J()).To(Equal(5))
				s = out.Next
			}
		})

		It("jumps outside the flow set under the randomized policy", func() {
			eng, _ := hybrid.New(c, jumplogic.NewTieBreak(jumplogic.NewSeededCoin(1, 0)), nil)
			out, err := eng.Step(dynamo.NewExtendedState(0, 0, dynamo.State{2}), nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Jumped).To(BeTrue())
		})
	})

	Describe("horizons", func() {
		It("reports the time limit with the computed state", func() {
			c.TimeHorizon = 1.0
			eng, _ := hybrid.New(c, nil, nil)
			out, err := eng.Step(dynamo.NewExtendedState(0.5, 0, dynamo.State{0}), nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrTimeLimit))
			Expect(dynamo.StatusOf(err)).To(Equal(dynamo.StatusTimeLimit))
			Expect(out.Next.T()).To(Equal(1.0))
			Expect(out.Output).To(HaveLen(3))
		})

		It("reports the jump limit with the computed state", func() {
			c.JumpHorizon = 3
			eng, _ := hybrid.New(c, nil, nil)
			out, err := eng.Step(dynamo.NewExtendedState(0, 2, dynamo.State{5}), nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrJumpLimit))
			Expect(out.Jumped).To(BeTrue())
			Expect(out.Next.J()).To(Equal(3))
			Expect(out.Output[1]).To(Equal(3.0))
		})

		It("checks the time horizon before the jump horizon", func() {
			c.TimeHorizon = 1.0
			c.JumpHorizon = 1
			eng, _ := hybrid.New(c, nil, nil)
			_, err := eng.Step(dynamo.NewExtendedState(2, 4, dynamo.State{5}), nil, nil, 0)
			Expect(dynamo.StatusOf(err)).To(Equal(dynamo.StatusTimeLimit))
		})

		It("keeps reporting a reached limit", func() {
			c.JumpHorizon = 2
			eng, _ := hybrid.New(c, nil, nil)
			s := dynamo.NewExtendedState(0, 1, dynamo.State{5})
			for i := 0; i < 5; i++ {
				out, err := eng.Step(s, nil, nil, 0)
				Expect(dynamo.StatusOf(err)).To(Equal(dynamo.StatusJumpLimit))
				Expect(out.Next.J()).To(BeNumerically(">=", s.J()))
				s = out.Next
			}
		})
	})

	Describe("the integrator adapter", func() {
		It("leaves x unchanged under an identity stepper while t advances", func() {
			eng, _ := hybrid.New(c, jumplogic.FlowOnly, &hold{})
			s := dynamo.NewExtendedState(0, 0, dynamo.State{0.25})
			for i := 0; i < 4; i++ {
				out, err := eng.Step(s, nil, nil, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(out.Next.X()[0]).To(Equal(0.25))
				Expect(out.Next.T()).To(Equal(s.T() + c.StepSize))
				s = out.Next
			}
		})

		DescribeTable("maps integrator failures onto statuses",
			func(stepErr error, want dynamo.Status) {
				eng, _ := hybrid.New(c, nil, failing{err: stepErr})
				out, err := eng.Step(dynamo.NewExtendedState(0, 0, dynamo.State{0}), nil, nil, 0)
				Expect(dynamo.StatusOf(err)).To(Equal(want))
				Expect(out.Next.IsZero()).To(BeTrue())
				var se *dynamo.StepError
				Expect(errors.As(err, &se)).To(BeTrue())
				Expect(se.Status).To(Equal(want))
			},
			Entry("allocation", dynamo.ErrAllocation, dynamo.StatusAllocationFailure),
			Entry("null reference", dynamo.ErrNullReference, dynamo.StatusNullReference),
			Entry("dimension", dynamo.ErrInvalidDimension, dynamo.StatusInvalidDimension),
			Entry("anything else", errors.New("diverged"), dynamo.StatusGeneric),
		)
	})

	Describe("buffer validation", func() {
		var eng *hybrid.Engine

		BeforeEach(func() {
			eng, _ = hybrid.New(c, nil, nil)
		})

		It("rejects a missing state", func() {
			_, err := eng.Step(dynamo.ExtendedState{}, nil, nil, 0)
			Expect(dynamo.StatusOf(err)).To(Equal(dynamo.StatusNullReference))
		})

		It("rejects a state of the wrong size", func() {
			_, err := eng.Step(dynamo.NewExtendedState(0, 0, dynamo.State{1, 2}), nil, nil, 0)
			Expect(dynamo.StatusOf(err)).To(Equal(dynamo.StatusInvalidDimension))
		})

		It("rejects caller buffers of the wrong size", func() {
			state := []float64{0, 0, 0}
			_, err := eng.StepInto(make([]float64, 2), make([]float64, 3), state, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
			_, err = eng.StepInto(make([]float64, 3), make([]float64, 1), state, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
			_, err = eng.StepInto(nil, make([]float64, 3), state, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrNullReference))
		})

		It("rejects a next buffer aliasing the state", func() {
			buf := []float64{1, 0, 3}
			_, err := eng.StepInto(buf, make([]float64, 3), buf, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
			Expect(buf).To(Equal([]float64{1, 0, 3}))

			wide := []float64{0, 1, 0, 3}
			_, err = eng.StepInto(wide[:3], make([]float64, 3), wide[1:], nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
		})

		It("rejects an output buffer aliasing a state buffer", func() {
			state, next := []float64{1, 0, 3}, make([]float64, 3)
			_, err := eng.StepInto(next, state, state, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
			_, err = eng.StepInto(next, next, state, nil, nil, 0)
			Expect(err).To(MatchError(dynamo.ErrInvalidDimension))
		})

		It("accepts disjoint views of one backing array", func() {
			buf := []float64{1, 0, 3, 0, 0, 0}
			_, err := eng.StepInto(buf[3:], make([]float64, 3), buf[:3], nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf[3:]).To(Equal([]float64{1, 1, 13}))
		})

		It("writes into caller buffers", func() {
			next, y := make([]float64, 3), make([]float64, 3)
			jumped, err := eng.StepInto(next, y, []float64{1, 0, 3}, nil, nil, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(jumped).To(BeTrue())
			Expect(next).To(Equal([]float64{1, 1, 13}))
			Expect(y).To(Equal([]float64{1, 1, 13}))
		})
	})
})
