package lend

import (
	"iter"
	"log/slog"

	"github.com/oliverbestmann/lend/spoke"
)

// store is the part of the storage engine that a World forwards to.
type store interface {
	Spawn(entityId EntityId, components []ErasedComponent)
	Despawn(entityId EntityId) bool
	InsertComponent(entityId EntityId, component ErasedComponent) (ErasedComponent, bool)
	RemoveComponent(entityId EntityId, componentType *spoke.ComponentType) (ErasedComponent, bool)
	Get(entityId EntityId) (spoke.EntityRef, bool)
	Iter() iter.Seq[spoke.EntityRef]
	EntityCount() int
}

var _ store = (*spoke.Storage)(nil)

// World holds all entities and their components.
//
// A World is usually registered as a resource in a Context. Systems then
// access it through a SubWorld, which restricts them to the component
// types they declared. Changing the structure of the world (spawning,
// despawning, inserting or removing components) requires exclusive access
// to the World itself, e.g. using ResMut[World].
type World struct {
	noCopy noCopy

	storage     store
	entityIdSeq EntityId
}

// NewWorld creates a new empty world.
func NewWorld() *World {
	return newWorldWithStore(spoke.NewStorage())
}

func newWorldWithStore(storage store) *World {
	return &World{storage: storage}
}

// Spawn spawns a new entity with the given components.
func (w *World) Spawn(components []ErasedComponent) EntityId {
	w.entityIdSeq += 1
	entityId := w.entityIdSeq

	w.storage.Spawn(entityId, components)

	return entityId
}

// Despawn removes the entity and all its components. Returns false
// if the entity did not exist.
func (w *World) Despawn(entityId EntityId) bool {
	if !w.storage.Despawn(entityId) {
		slog.Debug("Can not despawn entity, it does not exist", slog.Any("entityId", entityId))
		return false
	}

	return true
}

// Insert adds a component to an entity, replacing an existing
// component of the same type.
func (w *World) Insert(entityId EntityId, component ErasedComponent) error {
	if _, ok := w.storage.InsertComponent(entityId, component); !ok {
		return &NoSuchEntityError{EntityId: entityId}
	}

	return nil
}

// Remove removes the component of type C from the entity and returns a copy of it.
func Remove[C IsComponent[C]](w *World, entityId EntityId) (C, error) {
	var zeroValue C

	value, ok := w.storage.RemoveComponent(entityId, spoke.ComponentTypeOf[C]())
	if !ok {
		return zeroValue, &NoSuchEntityError{EntityId: entityId}
	}

	return *any(value).(*C), nil
}

func (w *World) target() *World {
	return w
}

// Contains reports whether the entity exists.
func (w *World) Contains(entityId EntityId) bool {
	_, ok := w.storage.Get(entityId)
	return ok
}

func (w *World) EntityCount() int {
	return w.storage.EntityCount()
}

// QueryWorld runs an unrestricted query over the world. Use QueryOf on a
// SubWorld to run a query that is checked against declared accesses.
func QueryWorld[Q any](w *World) *Query[Q] {
	return newQuery[Q](w, mustParseQuery[Q]())
}
