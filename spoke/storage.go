package spoke

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"slices"
)

// Storage keeps the components of all entities. Reading from a Storage is safe
// from multiple goroutines as long as no goroutine modifies its structure
// (spawn, despawn, insert or remove) at the same time.
type Storage struct {
	entities map[EntityId]*entityRow

	// entities in iteration order. Despawning swaps the last
	// entity into the freed slot.
	order []*entityRow
}

type entityRow struct {
	id         EntityId
	index      int
	components map[*ComponentType]ErasedComponent
}

func NewStorage() *Storage {
	return &Storage{
		entities: map[EntityId]*entityRow{},
	}
}

// Spawn adds a new entity with the given components. Components are copied
// onto the heap, a later component replaces an earlier one of the same type.
func (s *Storage) Spawn(entityId EntityId, components []ErasedComponent) {
	if _, exists := s.entities[entityId]; exists {
		panic(fmt.Sprintf("entity %s already exists", entityId))
	}

	row := &entityRow{
		id:         entityId,
		index:      len(s.order),
		components: make(map[*ComponentType]ErasedComponent, len(components)),
	}

	for _, component := range components {
		componentType := component.ComponentType()
		row.components[componentType] = componentType.CopyOf(component)
	}

	s.entities[entityId] = row
	s.order = append(s.order, row)
}

func (s *Storage) Despawn(entityId EntityId) bool {
	row, ok := s.entities[entityId]
	if !ok {
		return false
	}

	// move the last entity into the slot of the removed one
	last := s.order[len(s.order)-1]
	s.order[row.index] = last
	last.index = row.index

	s.order[len(s.order)-1] = nil
	s.order = s.order[:len(s.order)-1]

	delete(s.entities, entityId)

	return true
}

// InsertComponent inserts or replaces a component of the entity and returns
// the stored copy. Returns false, if the entity does not exist.
func (s *Storage) InsertComponent(entityId EntityId, component ErasedComponent) (ErasedComponent, bool) {
	row, ok := s.entities[entityId]
	if !ok {
		return nil, false
	}

	componentType := component.ComponentType()

	stored := componentType.CopyOf(component)
	row.components[componentType] = stored

	return stored, true
}

// RemoveComponent removes the component of the given type from the entity
// and returns the removed value.
func (s *Storage) RemoveComponent(entityId EntityId, componentType *ComponentType) (ErasedComponent, bool) {
	row, ok := s.entities[entityId]
	if !ok {
		return nil, false
	}

	component, ok := row.components[componentType]
	if !ok {
		// entity does not have the component in question
		return nil, false
	}

	delete(row.components, componentType)

	return component, true
}

func (s *Storage) Get(entityId EntityId) (EntityRef, bool) {
	row, ok := s.entities[entityId]
	if !ok {
		return EntityRef{}, false
	}

	return EntityRef{EntityId: entityId, row: row}, true
}

// Iter returns an iterator over all entities in the storage.
func (s *Storage) Iter() iter.Seq[EntityRef] {
	return func(yield func(EntityRef) bool) {
		for _, row := range s.order {
			if !yield(EntityRef{EntityId: row.id, row: row}) {
				return
			}
		}
	}
}

func (s *Storage) EntityCount() int {
	return len(s.entities)
}

// EntityRef points to an entity within a Storage.
type EntityRef struct {
	EntityId EntityId
	row      *entityRow
}

// Get returns a pointer to the component of the given type.
func (e EntityRef) Get(componentType *ComponentType) (ErasedComponent, bool) {
	if e.row == nil {
		return nil, false
	}

	value, ok := e.row.components[componentType]
	return value, ok
}

func (e EntityRef) Has(componentType *ComponentType) bool {
	_, ok := e.Get(componentType)
	return ok
}

// Components returns pointers to all components of the entity, ordered by their type id.
func (e EntityRef) Components() []ErasedComponent {
	if e.row == nil {
		return nil
	}

	types := slices.SortedFunc(maps.Keys(e.row.components), func(a, b *ComponentType) int {
		return cmp.Compare(a.Id, b.Id)
	})

	components := make([]ErasedComponent, 0, len(types))
	for _, ty := range types {
		components = append(components, e.row.components[ty])
	}

	return components
}
