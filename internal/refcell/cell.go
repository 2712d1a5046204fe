// Package refcell implements a runtime checked borrow of a value. A cell hands
// out either any number of shared borrows or a single exclusive one. Borrowing
// never blocks, a conflicting request fails with ErrBorrowed.
package refcell

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

var ErrBorrowed = errors.New("value is already borrowed")

const exclusiveState = -1

// Cell holds a pointer to a value together with its borrow state.
// A positive state counts the shared borrows, exclusiveState marks an
// exclusive borrow.
type Cell struct {
	value any
	state atomic.Int64
}

func New(value any) *Cell {
	return &Cell{value: value}
}

// TryBorrow acquires a shared borrow of the value.
func (c *Cell) TryBorrow() (*Ref, error) {
	for {
		state := c.state.Load()
		if state == exclusiveState {
			return nil, ErrBorrowed
		}

		if c.state.CompareAndSwap(state, state+1) {
			return &Ref{cell: c}, nil
		}
	}
}

// TryBorrowMut acquires an exclusive borrow of the value.
func (c *Cell) TryBorrowMut() (*Ref, error) {
	if !c.state.CompareAndSwap(0, exclusiveState) {
		return nil, ErrBorrowed
	}

	return &Ref{cell: c, exclusive: true}, nil
}

// IsBorrowed reports whether any borrow of the cell is outstanding.
func (c *Cell) IsBorrowed() bool {
	return c.state.Load() != 0
}

// Replace swaps the value of the cell. Fails if the cell is currently borrowed.
func (c *Cell) Replace(value any) error {
	// take an exclusive borrow for the duration of the swap
	ref, err := c.TryBorrowMut()
	if err != nil {
		return err
	}

	defer ref.Release()

	c.value = value

	return nil
}

// Ref is a guard for a single borrow. It must be released exactly once,
// further calls to Release are ignored.
type Ref struct {
	cell      *Cell
	exclusive bool
	released  atomic.Bool
}

func (r *Ref) Value() any {
	if r.released.Load() {
		panic("access to released borrow")
	}

	return r.cell.value
}

func (r *Ref) Exclusive() bool {
	return r.exclusive
}

func (r *Ref) Release() {
	if !r.released.CompareAndSwap(false, true) {
		return
	}

	if r.exclusive {
		r.cell.state.Store(0)
	} else {
		r.cell.state.Add(-1)
	}
}
