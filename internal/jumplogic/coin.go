package jumplogic

import (
	"math/rand"
	"sync"
	"time"
)

// Coin is a biased coin whose generator is created on the first flip.
// It is safe for concurrent use.
type Coin struct {
	once   sync.Once
	mu     sync.Mutex
	rng    *rand.Rand
	seed   int64
	seeded bool
	heads  float64
}

var defaultCoin = NewCoin(0.5)

// NewCoin returns a coin that lands heads with probability p and seeds
// itself from the clock on first use. p is clamped to [0, 1].
func NewCoin(p float64) *Coin {
	return &Coin{heads: clamp(p)}
}

// NewSeededCoin returns a coin with a fixed seed.
func NewSeededCoin(seed int64, p float64) *Coin {
	return &Coin{heads: clamp(p), seed: seed, seeded: true}
}

func (c *Coin) init() {
	seed := c.seed
	if !c.seeded {
		seed = time.Now().UnixNano()
	}
	c.rng = rand.New(rand.NewSource(seed))
}

// Flip reports heads.
func (c *Coin) Flip() bool {
	c.once.Do(c.init)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < c.heads
}

func (c *Coin) Probability() float64 { return c.heads }

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
