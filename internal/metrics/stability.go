package metrics

import (
	"math"

	"github.com/san-kum/hybsim/internal/dynamo"
)

// Bounded is the share of samples whose physical state stays within
// threshold in every component.
type Bounded struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewBounded(threshold float64) *Bounded {
	return &Bounded{
		name:      "bounded",
		threshold: threshold,
	}
}

func (b *Bounded) Name() string {
	return b.name
}

func (b *Bounded) Observe(s dynamo.ExtendedState, _ []float64, _ bool) {
	b.samples++
	for _, val := range s.X() {
		if math.Abs(val) > b.threshold {
			b.violations++
			break
		}
	}
}

func (b *Bounded) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounded) Reset() {
	b.violations = 0
	b.samples = 0
}
