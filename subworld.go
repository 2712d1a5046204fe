package lend

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/oliverbestmann/lend/borrow"
	"github.com/oliverbestmann/lend/internal/refcell"
	"github.com/oliverbestmann/lend/spoke"
)

// View is implemented by handles that restrict a superset handle S.
// Split initializes the view from the superset.
type View[S any] interface {
	Split(superset S)
}

// SubWorld is a restricted view of a World. It may only be used to run queries
// that require a subset of the accesses declared by the borrow specification T
// (see BorrowsOf). Every query is checked before the world is touched.
//
// Two subworlds with non conflicting specifications may be used concurrently.
type SubWorld[T any] struct {
	world   *World
	borrows borrow.Borrows

	// set if the world was borrowed from a Context
	guard *refcell.Ref
}

var _ View[*World] = (*SubWorld[struct{}])(nil)
var _ ContextBorrow = (*SubWorld[struct{}])(nil)
var _ borrow.ComponentBorrow = (*SubWorld[struct{}])(nil)

// Split restricts the given World to the accesses declared by T.
func Split[T any](world *World) *SubWorld[T] {
	var sw SubWorld[T]
	sw.Split(world)
	return &sw
}

// Split initializes the SubWorld with the given World. The world is only
// referenced, no borrow is acquired.
func (sw *SubWorld[T]) Split(world *World) {
	sw.Release()

	sw.borrows = reflectBorrows(reflect.TypeFor[T]())
	sw.world = world
}

// BorrowFrom acquires a shared borrow of the World in the Context and
// initializes the SubWorld with it.
func (sw *SubWorld[T]) BorrowFrom(ctx *Context) error {
	sw.Release()

	borrows := reflectBorrows(reflect.TypeFor[T]())

	guard, err := ctx.borrow(reflect.TypeFor[World](), false, typeNameOf[T]())
	if err != nil {
		return err
	}

	sw.world = guard.Value().(*World)
	sw.borrows = borrows
	sw.guard = guard

	return nil
}

// Release releases the borrow of the World, if the SubWorld was obtained
// from a Context. The SubWorld must not be used afterwards.
func (sw *SubWorld[T]) Release() {
	if sw.guard == nil {
		return
	}

	sw.guard.Release()
	sw.guard = nil
	sw.world = nil
}

// Borrows returns the accesses declared by the SubWorld.
func (sw *SubWorld[T]) Borrows() borrow.Borrows {
	return reflectBorrows(reflect.TypeFor[T]()).Clone()
}

// ComponentBorrows returns the declared accesses plus a shared access to the World.
func (sw *SubWorld[T]) ComponentBorrows() borrow.Borrows {
	var b borrow.Builder
	b.PushAll(reflectBorrows(reflect.TypeFor[T]()))
	b.Push(borrow.AccessOf[World]())
	return b.Borrows()
}

func (sw *SubWorld[T]) String() string {
	return fmt.Sprintf("SubWorld%s", sw.borrows)
}

func (sw *SubWorld[T]) target() *World {
	if sw.world == nil {
		panic(fmt.Sprintf("%T is not initialized or was released", sw))
	}

	return sw.world
}

// check returns an *IncompatibleSubworldError if required is not covered by the SubWorld.
func (sw *SubWorld[T]) check(required borrow.Borrows) error {
	if borrow.IsSubset(required, sw.borrows) {
		return nil
	}

	slog.Debug(
		"Access rejected by subworld",
		slog.String("subworld", sw.borrows.String()),
		slog.String("required", required.String()),
	)

	return &IncompatibleSubworldError{
		Subworld: sw.borrows.Clone(),
		Query:    required.Clone(),
	}
}

// HasAccess reports whether the SubWorld grants the single access U.
// U is either a component type C requesting shared access,
// or a pointer *C requesting exclusive access.
func HasAccess[U, T any](sw *SubWorld[T]) bool {
	return sw.borrows.Has(borrow.AccessOf[U]())
}

// HasAll reports whether all accesses declared by Q are covered by the SubWorld.
func HasAll[Q, T any](sw *SubWorld[T]) bool {
	return borrow.IsSubset(reflectBorrows(reflect.TypeFor[Q]()), sw.borrows)
}

// QueryOf creates a query of type Q over the SubWorld.
//
// Running a query that was not declared by the SubWorld is a programming error:
// QueryOf panics with an *IncompatibleSubworldError in that case.
// Use TryQueryOf to handle the error instead.
func QueryOf[Q, T any](sw *SubWorld[T]) *Query[Q] {
	q, err := TryQueryOf[Q](sw)
	if err != nil {
		panic(err)
	}

	return q
}

// TryQueryOf creates a query of type Q over the SubWorld. Returns an
// *IncompatibleSubworldError if Q requires accesses not declared by the SubWorld.
func TryQueryOf[Q, T any](sw *SubWorld[T]) (*Query[Q], error) {
	parsed := mustParseQuery[Q]()

	if err := sw.check(parsed.Borrows); err != nil {
		return nil, err
	}

	// fail early if the subworld is not usable
	sw.target()

	return newQuery[Q](sw, parsed), nil
}

// QueryOneOf creates a query of type Q for a single entity. Returns a
// *NoSuchEntityError if the entity does not exist.
func QueryOneOf[Q, T any](sw *SubWorld[T], entityId EntityId) (*QueryOne[Q], error) {
	q, err := TryQueryOf[Q](sw)
	if err != nil {
		return nil, err
	}

	if !sw.target().Contains(entityId) {
		return nil, &NoSuchEntityError{EntityId: entityId}
	}

	return &QueryOne[Q]{query: q, entityId: entityId}, nil
}

// ComponentOf returns a copy of the component C of the entity. The SubWorld must
// declare at least shared access to C. Returns a *NoSuchEntityError if the entity
// does not exist or does not have a component of type C.
//
// Use QueryOneOf with a pointer to modify the component.
func ComponentOf[C IsComponent[C], T any](sw *SubWorld[T], entityId EntityId) (C, error) {
	var zeroValue C

	if err := sw.check(borrow.Borrows{borrow.AccessOf[C]()}); err != nil {
		return zeroValue, err
	}

	ref, ok := sw.target().storage.Get(entityId)
	if !ok {
		return zeroValue, &NoSuchEntityError{EntityId: entityId}
	}

	value, ok := ref.Get(spoke.ComponentTypeOf[C]())
	if !ok {
		return zeroValue, &NoSuchEntityError{EntityId: entityId}
	}

	return *any(value).(*C), nil
}

func typeNameOf[T any]() string {
	return reflect.TypeFor[T]().String()
}
