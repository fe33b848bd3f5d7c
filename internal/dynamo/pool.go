package dynamo

import "sync"

// StatePool recycles scratch vectors. Vectors handed out by Get are zeroed
// and have exactly the requested length.
type StatePool struct {
	pool sync.Pool
}

func NewStatePool() *StatePool {
	return &StatePool{
		pool: sync.Pool{
			New: func() interface{} {
				return State(nil)
			},
		},
	}
}

func (p *StatePool) Get(n int) State {
	s := p.pool.Get().(State)
	if cap(s) < n {
		return make(State, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = 0
	}
	return s
}

func (p *StatePool) Put(s State) {
	if cap(s) == 0 {
		return
	}
	p.pool.Put(s[:0])
}

func (p *StatePool) GetAndCopy(src State) State {
	dst := p.Get(len(src))
	copy(dst, src)
	return dst
}
