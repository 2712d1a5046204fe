// Package typedpool wraps a sync.Pool for values of a single type.
package typedpool

import "sync"

type Pool[T any] struct {
	pool  sync.Pool
	reset func(value *T)
}

// New creates a pool of *T. If reset is not nil, it is applied to
// every value given back to the pool.
func New[T any](reset func(value *T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return new(T) },
		},

		reset: reset,
	}
}

func (p *Pool[T]) Get() *T {
	return p.pool.Get().(*T)
}

func (p *Pool[T]) Put(value *T) {
	if p.reset != nil {
		p.reset(value)
	}

	p.pool.Put(value)
}
