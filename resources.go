package lend

import (
	"reflect"

	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/internal/refcell"
)

// Res borrows a resource of type R from a Context for shared access.
// Value holds a copy of the resource.
type Res[R any] struct {
	Value R
	guard *refcell.Ref
}

func (r *Res[R]) BorrowFrom(ctx *Context) error {
	r.Release()

	guard, err := ctx.borrow(reflect.TypeFor[R](), false, typeNameOf[Res[R]]())
	if err != nil {
		return err
	}

	r.Value = *guard.Value().(*R)
	r.guard = guard

	return nil
}

func (r *Res[R]) Release() {
	if r.guard == nil {
		return
	}

	r.guard.Release()
	r.guard = nil
}

func (*Res[R]) ComponentBorrows() borrow.Borrows {
	return borrow.Borrows{borrow.AccessOf[R]()}
}

// ResMut borrows a resource of type R from a Context for exclusive access.
// Value points to the resource held by the Context and is only valid until
// the borrow is released.
type ResMut[R any] struct {
	Value *R
	guard *refcell.Ref
}

func (r *ResMut[R]) BorrowFrom(ctx *Context) error {
	r.Release()

	guard, err := ctx.borrow(reflect.TypeFor[R](), true, typeNameOf[ResMut[R]]())
	if err != nil {
		return err
	}

	r.Value = guard.Value().(*R)
	r.guard = guard

	return nil
}

func (r *ResMut[R]) Release() {
	if r.guard == nil {
		return
	}

	r.guard.Release()
	r.guard = nil
	r.Value = nil
}

func (*ResMut[R]) ComponentBorrows() borrow.Borrows {
	return borrow.Borrows{borrow.AccessOf[*R]()}
}
